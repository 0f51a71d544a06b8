package feedback

import (
	"fmt"
	"sort"
)

// Default labels for records with an empty status or kind.
const (
	LabelNoType   = "Sin tipo"
	LabelNoStatus = "Sin estado"
)

// Bucket is one entry of a grouped count.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Color string `json:"color,omitempty"`
}

// RatingField selects one numeric rating of a record.
type RatingField string

const (
	RatingDeontological RatingField = "valoracion_deontologica"
	RatingPertinence    RatingField = "valoracion_pertinencia"
	RatingInteraction   RatingField = "valoracion_calidad_interaccion"
	RatingImpact        RatingField = "impacto_resolucion_dilemas"
	RatingCoherence     RatingField = "coherencia_interacciones"
	RatingEase          RatingField = "facilidad_avance_resolucion"
)

// CriterionField returns the rating field of corpus criterion C(i+1).
func CriterionField(i int) RatingField {
	return RatingField(CorpusCriteria[i].Key)
}

// Rating returns the value of field for r, or 0 when the record's kind does
// not define that field.
func (r Record) Rating(field RatingField) int {
	switch {
	case r.Conversation != nil:
		c := r.Conversation
		switch field {
		case RatingDeontological:
			return c.DeontologicalRating
		case RatingPertinence:
			return c.PertinenceRating
		case RatingInteraction:
			return c.InteractionRating
		case RatingImpact:
			return c.ImpactRating
		case RatingCoherence:
			return c.CoherenceRating
		case RatingEase:
			return c.EaseOfResolutionScore
		}
	case r.Corpus != nil:
		for i, crit := range CorpusCriteria {
			if string(field) == crit.Key {
				return r.Corpus.Criteria[i]
			}
		}
	case r.Incident != nil:
		if field == RatingDeontological {
			return r.Incident.LegacyRating
		}
	}
	return 0
}

// CategoricalField selects one categorical answer of a conversation record.
type CategoricalField string

const (
	CategoryClarity       CategoricalField = "claridad"
	CategoryUsefulness    CategoricalField = "utilidad"
	CategoryApplicability CategoricalField = "utilidad_experto_aplicabilidad"
)

// Category returns the categorical answer for field, or "" if absent.
func (r Record) Category(field CategoricalField) string {
	if r.Conversation == nil {
		return ""
	}
	switch field {
	case CategoryClarity:
		return r.Conversation.Clarity
	case CategoryUsefulness:
		return r.Conversation.Usefulness
	case CategoryApplicability:
		return r.Conversation.ExpertApplicability
	}
	return ""
}

// groupCount counts records per key, keeping first-occurrence order.
func groupCount(records []Record, key func(Record) string) []Bucket {
	index := make(map[string]int)
	var out []Bucket
	for _, r := range records {
		k := key(r)
		if i, ok := index[k]; ok {
			out[i].Count++
			continue
		}
		index[k] = len(out)
		out = append(out, Bucket{Label: k, Count: 1})
	}
	return out
}

// CountByStatus groups records by review status in first-occurrence order.
func CountByStatus(records []Record) []Bucket {
	return groupCount(records, func(r Record) string {
		if r.Status == "" {
			return LabelNoStatus
		}
		return string(r.Status)
	})
}

// CountByKind groups records by kind, sorted by descending count. Ties keep
// first-occurrence order.
func CountByKind(records []Record) []Bucket {
	out := groupCount(records, func(r Record) string {
		if r.Kind == "" {
			return LabelNoType
		}
		return string(r.Kind)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// CountStatus returns how many records carry status s.
func CountStatus(records []Record, s Status) int {
	n := 0
	for _, r := range records {
		if r.Status == s {
			n++
		}
	}
	return n
}

// AverageRating averages field over the records where it is > 0. An
// empty denominator yields 0.
func AverageRating(records []Record, field RatingField) float64 {
	sum, n := 0, 0
	for _, r := range records {
		if v := r.Rating(field); v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// FormatAverage renders an average with two decimals.
func FormatAverage(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// RatingDistribution counts ratings 1..5 of field. Index 0 holds the
// count of 1-star ratings. Unrated records fall in no bucket.
func RatingDistribution(records []Record, field RatingField) [5]int {
	var dist [5]int
	for _, r := range records {
		if v := r.Rating(field); v >= 1 && v <= 5 {
			dist[v-1]++
		}
	}
	return dist
}

// CategoricalBreakdown counts records per observed answer of field.
// Unanswered records and unobserved answers are omitted.
func CategoricalBreakdown(records []Record, field CategoricalField) []Bucket {
	var answered []Record
	for _, r := range records {
		if r.Category(field) != "" {
			answered = append(answered, r)
		}
	}
	return groupCount(answered, func(r Record) string { return r.Category(field) })
}

// CriterionAverage is the aggregate of one corpus criterion.
type CriterionAverage struct {
	Criterion
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// CorpusCriterionAverages returns one average per criterion, each computed
// over the corpus records that rated it.
func CorpusCriterionAverages(records []Record) []CriterionAverage {
	out := make([]CriterionAverage, CorpusCriteriaCount)
	for i, crit := range CorpusCriteria {
		field := CriterionField(i)
		count := 0
		for _, r := range records {
			if r.Corpus != nil && r.Rating(field) > 0 {
				count++
			}
		}
		out[i] = CriterionAverage{Criterion: crit, Average: AverageRating(records, field), Count: count}
	}
	return out
}

// PooledCorpusAverage is the mean of every non-zero criterion rating across
// all corpus records, pooled together.
func PooledCorpusAverage(records []Record) float64 {
	sum, n := 0, 0
	for _, r := range records {
		if r.Corpus == nil {
			continue
		}
		for _, v := range r.Corpus.Criteria {
			if v > 0 {
				sum += v
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}
