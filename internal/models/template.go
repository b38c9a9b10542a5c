package models

// TemplateID names a visual presentation style applied to a finished
// gift's payload. Rendering is the front end's concern; the API only
// guarantees the identifier is one of the known set.
type TemplateID string

const (
	TemplateMinimalistLove      TemplateID = "minimalist-love"
	TemplateGrandAnniversary    TemplateID = "grand-anniversary"
	TemplateBirthdayCelebration TemplateID = "birthday-celebration"
	TemplateRomanticEvening     TemplateID = "romantic-evening"
)

func (t TemplateID) Valid() bool {
	switch t {
	case TemplateMinimalistLove, TemplateGrandAnniversary, TemplateBirthdayCelebration, TemplateRomanticEvening:
		return true
	}
	return false
}

// TemplateForOccasion derives a template when the operator does not pick
// one explicitly.
func TemplateForOccasion(o Occasion) TemplateID {
	switch o {
	case OccasionBirthday:
		return TemplateBirthdayCelebration
	case OccasionAnniversary:
		return TemplateGrandAnniversary
	default:
		return TemplateMinimalistLove
	}
}
