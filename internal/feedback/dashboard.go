package feedback

// Chart colours.
var (
	statusColors = map[Status]string{
		StatusPending:  "#F59E0B",
		StatusInReview: "#3B82F6",
		StatusReviewed: "#10B981",
	}
	defaultStatusColor = "#6B7280"
	kindPalette        = []string{"#3B82F6", "#8B5CF6", "#EC4899", "#F59E0B", "#10B981", "#6366F1", "#D946EF"}
)

// StatusColor returns the chart colour of a status label.
func StatusColor(label string) string {
	if c, ok := statusColors[Status(label)]; ok {
		return c
	}
	return defaultStatusColor
}

// PaletteColor returns the i-th colour of the kind palette, cycling.
func PaletteColor(i int) string {
	return kindPalette[i%len(kindPalette)]
}

func colorByStatus(buckets []Bucket) []Bucket {
	for i := range buckets {
		buckets[i].Color = StatusColor(buckets[i].Label)
	}
	return buckets
}

func colorByPalette(buckets []Bucket) []Bucket {
	for i := range buckets {
		buckets[i].Color = PaletteColor(i)
	}
	return buckets
}

// RatingSummary is the display form of one averaged rating field.
type RatingSummary struct {
	Field        RatingField `json:"field"`
	Average      float64     `json:"average"`
	Display      string      `json:"display"`
	Distribution [5]int      `json:"distribution"`
}

func summarizeRating(records []Record, field RatingField) RatingSummary {
	avg := AverageRating(records, field)
	return RatingSummary{
		Field:        field,
		Average:      avg,
		Display:      FormatAverage(avg),
		Distribution: RatingDistribution(records, field),
	}
}

// GeneralView aggregates across every kind.
type GeneralView struct {
	Total         int           `json:"total"`
	Pending       int           `json:"pending"`
	InReview      int           `json:"in_review"`
	Reviewed      int           `json:"reviewed"`
	Deontological RatingSummary `json:"deontological"`
	ByStatus      []Bucket      `json:"by_status"`
	ByKind        []Bucket      `json:"by_kind"`
}

// ConversationView aggregates conversation evaluations only.
type ConversationView struct {
	Total         int             `json:"total"`
	Ratings       []RatingSummary `json:"ratings"`
	Clarity       []Bucket        `json:"clarity"`
	Usefulness    []Bucket        `json:"usefulness"`
	Applicability []Bucket        `json:"applicability"`
}

// CorpusView aggregates corpus-validation questionnaires only.
type CorpusView struct {
	Total          int                `json:"total"`
	Criteria       []CriterionAverage `json:"criteria"`
	Overall        float64            `json:"overall"`
	OverallDisplay string             `json:"overall_display"`
}

// Dashboard holds the three views computed from one filtered subset.
type Dashboard struct {
	General      GeneralView      `json:"general"`
	Conversation ConversationView `json:"conversation"`
	Corpus       CorpusView       `json:"corpus"`
}

// BuildDashboard composes the dashboard from a filtered subset. Cerrado
// records are left out of every view.
func BuildDashboard(subset []Record) Dashboard {
	open := ExcludeClosed(subset)
	return Dashboard{
		General:      buildGeneral(open),
		Conversation: buildConversation(ByTab(open, TabConversation)),
		Corpus:       buildCorpus(ByTab(open, TabCorpus)),
	}
}

func buildGeneral(records []Record) GeneralView {
	return GeneralView{
		Total:         len(records),
		Pending:       CountStatus(records, StatusPending),
		InReview:      CountStatus(records, StatusInReview),
		Reviewed:      CountStatus(records, StatusReviewed),
		Deontological: summarizeRating(records, RatingDeontological),
		ByStatus:      colorByStatus(CountByStatus(records)),
		ByKind:        colorByPalette(CountByKind(records)),
	}
}

func buildConversation(records []Record) ConversationView {
	fields := []RatingField{RatingDeontological, RatingPertinence, RatingInteraction, RatingImpact, RatingCoherence, RatingEase}
	ratings := make([]RatingSummary, 0, len(fields))
	for _, f := range fields {
		ratings = append(ratings, summarizeRating(records, f))
	}
	return ConversationView{
		Total:         len(records),
		Ratings:       ratings,
		Clarity:       colorByPalette(CategoricalBreakdown(records, CategoryClarity)),
		Usefulness:    colorByPalette(CategoricalBreakdown(records, CategoryUsefulness)),
		Applicability: colorByPalette(CategoricalBreakdown(records, CategoryApplicability)),
	}
}

func buildCorpus(records []Record) CorpusView {
	overall := PooledCorpusAverage(records)
	return CorpusView{
		Total:          len(records),
		Criteria:       CorpusCriterionAverages(records),
		Overall:        overall,
		OverallDisplay: FormatAverage(overall),
	}
}
