package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы жалобы в очереди модерации.
const (
	ReportStatusOpen      = "open"
	ReportStatusReviewed  = "reviewed"
	ReportStatusDismissed = "dismissed"
)

// Причины жалобы. Фиксированный набор, другие значения отклоняются.
const (
	ReportReasonHarassment           = "harassment"
	ReportReasonInappropriateContent = "inappropriate_content"
	ReportReasonSpam                 = "spam"
	ReportReasonHateSpeech           = "hate_speech"
	ReportReasonThreats              = "threats"
	ReportReasonMisinformation       = "misinformation"
	ReportReasonPersonalInformation  = "personal_information"
	ReportReasonOther                = "other"
)

// ReportReasons перечисляет допустимые причины жалобы.
var ReportReasons = map[string]bool{
	ReportReasonHarassment:           true,
	ReportReasonInappropriateContent: true,
	ReportReasonSpam:                 true,
	ReportReasonHateSpeech:           true,
	ReportReasonThreats:              true,
	ReportReasonMisinformation:       true,
	ReportReasonPersonalInformation:  true,
	ReportReasonOther:                true,
}

// Report описывает жалобу получателя на сообщение.
type Report struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	MessageID      uuid.UUID  `db:"message_id" json:"message_id"`
	ReporterID     uuid.UUID  `db:"reporter_id" json:"reporter_id"`
	Reason         string     `db:"reason" json:"reason"`
	AdditionalInfo *string    `db:"additional_info" json:"additional_info,omitempty"`
	Status         string     `db:"status" json:"status"`
	ReviewedBy     *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}
