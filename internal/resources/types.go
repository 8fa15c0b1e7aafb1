package resources

import (
	"time"

	"go-feed-cache/internal/producer"
)

// Config is the resource registration file
type Config struct {
	Resources []Definition `yaml:"resources" validate:"required,min=1,unique=Name,dive"`
}

// Definition declares one cached resource
type Definition struct {
	Name         string        `yaml:"name" validate:"required,excludesall=_/"`
	Align        string        `yaml:"align" validate:"required"`
	Offset       time.Duration `yaml:"offset"`
	KeyLayout    string        `yaml:"key_layout"`
	LabelLayout  string        `yaml:"label_layout"`
	WarmInterval time.Duration `yaml:"warm_interval" validate:"gte=0"`
	Producer     producer.Spec `yaml:"producer"`
}
