// Package feedback holds the canonical feedback and report shapes together
// with the pure engines that operate on them: normalization, filtering,
// aggregation, form validation and CSV export. Nothing in this package
// performs I/O.
package feedback

import (
	"time"
)

// Kind is the feedback-type tag chosen by the evaluator.
type Kind string

const (
	KindError        Kind = "Error o Fallo"
	KindImprovement  Kind = "Sugerencia de Mejora"
	KindPositive     Kind = "Valoración Positiva / Uso Relevante"
	KindEthical      Kind = "Inquietud Ética/Deontológica"
	KindConversation Kind = "Valorar Conversación"
	KindCorpus       Kind = "Validación de Corpus"
)

// IncidentKinds lists the kinds that carry an incident payload, in form order.
var IncidentKinds = []Kind{KindError, KindImprovement, KindPositive, KindEthical}

// IsIncident reports whether k is one of the incident subtypes.
func (k Kind) IsIncident() bool {
	for _, ik := range IncidentKinds {
		if k == ik {
			return true
		}
	}
	return false
}

// Status is the review label attached to a record. Any transition between
// the four values is allowed.
type Status string

const (
	StatusPending  Status = "Pendiente"
	StatusInReview Status = "En Revisión"
	StatusReviewed Status = "Revisado"
	StatusClosed   Status = "Cerrado"
)

// Statuses lists every review status in workflow order.
var Statuses = []Status{StatusPending, StatusInReview, StatusReviewed, StatusClosed}

// Valid reports whether s is a known review status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Device is the kind of device the evaluator used.
type Device string

const (
	DeviceUnset   Device = ""
	DeviceMobile  Device = "Movil"
	DeviceTablet  Device = "Tableta"
	DeviceDesktop Device = "Ordenador"
)

// Categorical answers used by conversation evaluations.
const (
	AnswerYes     = "Sí"
	AnswerNo      = "No"
	AnswerUnsure  = "No Estoy Seguro"
	AnswerDepends = "Depende"
)

// CorpusCriteriaCount is the number of numbered corpus criteria (C1..C11).
const CorpusCriteriaCount = 11

// IncidentPayload is carried by the four incident kinds.
type IncidentPayload struct {
	Description     string `json:"descripcion"`
	ChatbotResponse string `json:"respuesta_chatbot"`
	// LegacyRating holds a deontological rating stored by early form
	// versions that asked for one on every kind.
	LegacyRating int `json:"valoracion_deontologica,omitempty"`
}

// ConversationPayload is carried by conversation evaluations.
type ConversationPayload struct {
	Description           string `json:"descripcion"`
	ChatbotResponse       string `json:"respuesta_chatbot"`
	Clarity               string `json:"claridad"`
	Usefulness            string `json:"utilidad"`
	DeontologicalRating   int    `json:"valoracion_deontologica"`
	PertinenceRating      int    `json:"valoracion_pertinencia"`
	InteractionRating     int    `json:"valoracion_calidad_interaccion"`
	ExpertApplicability   string `json:"utilidad_experto_aplicabilidad"`
	ExpertJustification   string `json:"utilidad_experto_justificacion"`
	ImpactRating          int    `json:"impacto_resolucion_dilemas"`
	CoherenceRating       int    `json:"coherencia_interacciones"`
	InteractionCount      int    `json:"numero_interacciones"`
	EaseOfResolutionScore int    `json:"facilidad_avance_resolucion"`
}

// CorpusPayload is carried by corpus-validation questionnaires.
// Criteria[i] holds the rating for criterion C(i+1).
type CorpusPayload struct {
	Criteria  [CorpusCriteriaCount]int `json:"criteria"`
	Comments  string                   `json:"corpus_comentarios"`
	Proposals string                   `json:"corpus_propuestas"`
}

// Record is the canonical feedback record: a common envelope plus exactly
// one payload chosen by Kind. Records of an unknown kind carry no payload.
type Record struct {
	ID            string     `json:"id"`
	EvaluatorName string     `json:"nombre_evaluador"`
	SubmittedAt   string     `json:"fecha_hora"`
	Device        Device     `json:"dispositivo"`
	Scenario      string     `json:"escenario_keywords"`
	Kind          Kind       `json:"tipo_feedback"`
	FinalComments string     `json:"comentarios_finales"`
	Timestamp     *time.Time `json:"timestamp"`
	Status        Status     `json:"review_status"`
	Result        string     `json:"review_result"`

	Incident     *IncidentPayload     `json:"incident,omitempty"`
	Conversation *ConversationPayload `json:"conversation,omitempty"`
	Corpus       *CorpusPayload       `json:"corpus,omitempty"`
}

// Description returns the free-text description of the record, if its kind has one.
func (r Record) Description() string {
	switch {
	case r.Incident != nil:
		return r.Incident.Description
	case r.Conversation != nil:
		return r.Conversation.Description
	}
	return ""
}

// ChatbotResponse returns the chatbot excerpt quoted by the evaluator, if any.
func (r Record) ChatbotResponse() string {
	switch {
	case r.Incident != nil:
		return r.Incident.ChatbotResponse
	case r.Conversation != nil:
		return r.Conversation.ChatbotResponse
	}
	return ""
}

// PrimaryRating is the rating used by the minimum-rating filter. Corpus
// records use the pooled mean of their criteria.
func (r Record) PrimaryRating() float64 {
	switch {
	case r.Conversation != nil:
		return float64(r.Conversation.DeontologicalRating)
	case r.Corpus != nil:
		return PooledCorpusAverage([]Record{r})
	case r.Incident != nil:
		return float64(r.Incident.LegacyRating)
	}
	return 0
}

// DeontologicalRating returns valoracion_deontologica where the kind defines it.
func (r Record) DeontologicalRating() int {
	switch {
	case r.Conversation != nil:
		return r.Conversation.DeontologicalRating
	case r.Incident != nil:
		return r.Incident.LegacyRating
	}
	return 0
}

// New returns an empty record of the given kind with every rating at zero,
// every text field empty and the status set to Pendiente.
func New(kind Kind) Record {
	r := Record{Kind: kind, Status: StatusPending}
	r.ensurePayload()
	return r
}

// ensurePayload attaches the payload matching r.Kind and drops the others.
func (r *Record) ensurePayload() {
	switch {
	case r.Kind.IsIncident():
		if r.Incident == nil {
			r.Incident = &IncidentPayload{}
		}
		r.Conversation, r.Corpus = nil, nil
	case r.Kind == KindConversation:
		if r.Conversation == nil {
			r.Conversation = &ConversationPayload{}
		}
		r.Incident, r.Corpus = nil, nil
	case r.Kind == KindCorpus:
		if r.Corpus == nil {
			r.Corpus = &CorpusPayload{}
		}
		r.Incident, r.Conversation = nil, nil
	default:
		r.Incident, r.Conversation, r.Corpus = nil, nil, nil
	}
}

// Clone returns a copy of r that shares no pointers with it.
func (r Record) Clone() Record {
	if r.Timestamp != nil {
		t := *r.Timestamp
		r.Timestamp = &t
	}
	if r.Incident != nil {
		p := *r.Incident
		r.Incident = &p
	}
	if r.Conversation != nil {
		p := *r.Conversation
		r.Conversation = &p
	}
	if r.Corpus != nil {
		p := *r.Corpus
		r.Corpus = &p
	}
	return r
}

// Patch is a partial update of the mutable review fields. Nil fields are left untouched.
type Patch struct {
	Status *Status `json:"review_status,omitempty"`
	Result *string `json:"review_result,omitempty"`
}

// Apply returns r with the patch applied.
func (p Patch) Apply(r Record) Record {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Result != nil {
		r.Result = *p.Result
	}
	return r
}

// Tab identifies the dashboard/report category.
type Tab string

const (
	TabGeneral      Tab = "general"
	TabIncident     Tab = "incident"
	TabConversation Tab = "conversation"
	TabCorpus       Tab = "corpus"
)

var tabLabels = map[Tab]string{
	TabGeneral:      "Visión General",
	TabIncident:     "Incidencias",
	TabConversation: "Conversación",
	TabCorpus:       "Validación Corpus",
}

// ParseTab maps a wire value to a Tab. "iteration" is accepted as the
// legacy name of the incident tab.
func ParseTab(s string) (Tab, bool) {
	if s == "iteration" {
		return TabIncident, true
	}
	t := Tab(s)
	_, ok := tabLabels[t]
	return t, ok
}

// Label returns the display label of the tab.
func (t Tab) Label() string {
	if l, ok := tabLabels[t]; ok {
		return l
	}
	return string(t)
}

// Includes reports whether a record belongs to the tab's scope.
func (t Tab) Includes(r Record) bool {
	switch t {
	case TabIncident:
		return r.Kind.IsIncident()
	case TabConversation:
		return r.Kind == KindConversation
	case TabCorpus:
		return r.Kind == KindCorpus
	}
	return true
}

// Report is a persisted snapshot of a generated analysis. It is never updated in place.
type Report struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Tab             Tab       `json:"tab"`
	AISummary       string    `json:"ai_summary"`
	InfographicHTML string    `json:"infographic_html"`
	TableHTML       string    `json:"table_html"`
	RecordCount     int       `json:"record_count"`
	AIModelUsed     string    `json:"ai_model_used,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
