package repository

import (
	"time"

	"github.com/deecodes/fansense/model"
)

type Filter interface {
	IsDateRangeQuery() bool
	GetFromDate() time.Time
	GetToDate() time.Time
	IsEmotionQuery() bool
	GetEmotion() model.Emotion
	IsHashtagQuery() bool
	GetHashtag() string
	GetLimit() uint
}
