package feedback

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Submission is the flat wire shape posted by every evaluator form.
type Submission struct {
	EvaluatorName   string `json:"nombre_evaluador"`
	SubmittedAt     string `json:"fecha_hora"`
	Device          string `json:"dispositivo"`
	Scenario        string `json:"escenario_keywords"`
	Kind            string `json:"tipo_feedback"`
	Description     string `json:"descripcion"`
	ChatbotResponse string `json:"respuesta_chatbot"`
	FinalComments   string `json:"comentarios_finales"`

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

	C1  int `json:"corpus_c1_fuentes_pertinentes"`
	C2  int `json:"corpus_c2_estructura_exhaustiva"`
	C3  int `json:"corpus_c3_libre_info_no_autorizada"`
	C4  int `json:"corpus_c4_detalle_suficiente"`
	C5  int `json:"corpus_c5_core_fiable_legitimo"`
	C6  int `json:"corpus_c6_cobertura_tematica"`
	C7  int `json:"corpus_c7_actualizacion_vigencia"`
	C8  int `json:"corpus_c8_precision_rigor"`
	C9  int `json:"corpus_c9_representatividad_diversidad"`
	C10 int `json:"corpus_c10_redaccion_claridad"`
	C11 int `json:"corpus_c11_referenciacion_trazabilidad"`

	CorpusComments  string `json:"corpus_comentarios"`
	CorpusProposals string `json:"corpus_propuestas"`
}

func (s Submission) criteria() [CorpusCriteriaCount]int {
	return [CorpusCriteriaCount]int{s.C1, s.C2, s.C3, s.C4, s.C5, s.C6, s.C7, s.C8, s.C9, s.C10, s.C11}
}

// Record converts the submission into an unsaved record of its kind.
// Text fields are trimmed and status is Pendiente.
func (s Submission) Record() Record {
	r := New(Kind(strings.TrimSpace(s.Kind)))
	r.EvaluatorName = strings.TrimSpace(s.EvaluatorName)
	r.SubmittedAt = strings.TrimSpace(s.SubmittedAt)
	r.Device = Device(strings.TrimSpace(s.Device))
	r.FinalComments = strings.TrimSpace(s.FinalComments)
	if r.Kind != KindCorpus {
		r.Scenario = strings.TrimSpace(s.Scenario)
	}
	switch {
	case r.Incident != nil:
		r.Incident.Description = strings.TrimSpace(s.Description)
		r.Incident.ChatbotResponse = strings.TrimSpace(s.ChatbotResponse)
	case r.Conversation != nil:
		*r.Conversation = ConversationPayload{
			Description:           strings.TrimSpace(s.Description),
			ChatbotResponse:       strings.TrimSpace(s.ChatbotResponse),
			Clarity:               s.Clarity,
			Usefulness:            s.Usefulness,
			DeontologicalRating:   s.DeontologicalRating,
			PertinenceRating:      s.PertinenceRating,
			InteractionRating:     s.InteractionRating,
			ExpertApplicability:   s.ExpertApplicability,
			ExpertJustification:   strings.TrimSpace(s.ExpertJustification),
			ImpactRating:          s.ImpactRating,
			CoherenceRating:       s.CoherenceRating,
			InteractionCount:      s.InteractionCount,
			EaseOfResolutionScore: s.EaseOfResolutionScore,
		}
	case r.Corpus != nil:
		r.Corpus.Criteria = s.criteria()
		r.Corpus.Comments = strings.TrimSpace(s.CorpusComments)
		r.Corpus.Proposals = strings.TrimSpace(s.CorpusProposals)
	}
	return r
}

// Per-kind form rules. Field order is the on-screen order, which decides
// which failing field receives focus.
type incidentForm struct {
	Device      string `json:"dispositivo" validate:"required,oneof=Movil Tableta Ordenador"`
	Scenario    string `json:"escenario_keywords" validate:"required"`
	Kind        string `json:"tipo_feedback" validate:"required,oneof='Error o Fallo' 'Sugerencia de Mejora' 'Valoración Positiva / Uso Relevante' 'Inquietud Ética/Deontológica'"`
	Description string `json:"descripcion" validate:"required"`
}

type conversationForm struct {
	Device              string `json:"dispositivo" validate:"required,oneof=Movil Tableta Ordenador"`
	Scenario            string `json:"escenario_keywords" validate:"required"`
	Clarity             string `json:"claridad" validate:"required,oneof=Sí No"`
	Usefulness          string `json:"utilidad" validate:"required,oneof=Sí No 'No Estoy Seguro'"`
	DeontologicalRating int    `json:"valoracion_deontologica" validate:"min=0,max=5"`
	PertinenceRating    int    `json:"valoracion_pertinencia" validate:"min=0,max=5"`
	InteractionRating   int    `json:"valoracion_calidad_interaccion" validate:"min=0,max=5"`
	ExpertApplicability string `json:"utilidad_experto_aplicabilidad" validate:"omitempty,oneof=Sí No Depende"`
	ImpactRating        int    `json:"impacto_resolucion_dilemas" validate:"min=0,max=5"`
	CoherenceRating     int    `json:"coherencia_interacciones" validate:"min=0,max=5"`
	InteractionCount    int    `json:"numero_interacciones" validate:"min=0"`
	EaseOfResolution    int    `json:"facilidad_avance_resolucion" validate:"min=0,max=5"`
}

type corpusForm struct {
	Device   string `json:"dispositivo" validate:"required,oneof=Movil Tableta Ordenador"`
	Criteria []int  `json:"criteria" validate:"dive,min=1,max=5"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator. Field errors are reported with
// their JSON names.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// FieldError is one failing form field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// ValidationErrors lists failing fields in on-screen order.
type ValidationErrors []FieldError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(ve))
	for _, e := range ve {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return strings.Join(msgs, "; ")
}

// FirstField names the field that should receive focus.
func (ve ValidationErrors) FirstField() string {
	if len(ve) == 0 {
		return ""
	}
	return ve[0].Field
}

// Fields maps each failing field to its message.
func (ve ValidationErrors) Fields() map[string]string {
	out := make(map[string]string, len(ve))
	for _, e := range ve {
		out[e.Field] = e.Message
	}
	return out
}

// Validate checks a submission against the rules of its kind. For corpus
// questionnaires the first activeCriteria criteria must be rated; an
// out-of-range count means all of them. A nil error means the record may
// be shown for confirmation.
func Validate(s Submission, activeCriteria int) error {
	r := s.Record()
	var form interface{}
	switch {
	case r.Conversation != nil:
		c := r.Conversation
		form = &conversationForm{
			Device:              string(r.Device),
			Scenario:            r.Scenario,
			Clarity:             c.Clarity,
			Usefulness:          c.Usefulness,
			DeontologicalRating: c.DeontologicalRating,
			PertinenceRating:    c.PertinenceRating,
			InteractionRating:   c.InteractionRating,
			ExpertApplicability: c.ExpertApplicability,
			ImpactRating:        c.ImpactRating,
			CoherenceRating:     c.CoherenceRating,
			InteractionCount:    c.InteractionCount,
			EaseOfResolution:    c.EaseOfResolutionScore,
		}
	case r.Corpus != nil:
		n := clampActive(activeCriteria)
		form = &corpusForm{Device: string(r.Device), Criteria: r.Corpus.Criteria[:n]}
	default:
		form = &incidentForm{
			Device:      string(r.Device),
			Scenario:    r.Scenario,
			Kind:        string(r.Kind),
			Description: strings.TrimSpace(s.Description),
		}
	}

	err := GetValidator().Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if idx, ok := criterionIndex(field); ok {
			field = CorpusCriteria[idx].Key
		}
		out = append(out, FieldError{
			Field:   field,
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(field, fe.Tag()),
		})
	}
	return out
}

// criterionIndex parses the "criteria[i]" name produced by dive.
func criterionIndex(field string) (int, bool) {
	if !strings.HasPrefix(field, "criteria[") || !strings.HasSuffix(field, "]") {
		return 0, false
	}
	i, err := strconv.Atoi(field[len("criteria[") : len(field)-1])
	if err != nil || i < 0 || i >= CorpusCriteriaCount {
		return 0, false
	}
	return i, true
}

var requiredMessages = map[string]string{
	"dispositivo":        "Debe seleccionar un dispositivo.",
	"escenario_keywords": "Debe indicar el escenario o las palabras clave.",
	"tipo_feedback":      "Debe seleccionar un tipo de feedback.",
	"descripcion":        "La descripción es requerida.",
	"claridad":           "Debe indicar si la respuesta fue clara.",
	"utilidad":           "Debe indicar si la respuesta fue útil.",
}

func message(field, tag string) string {
	if strings.HasPrefix(field, "corpus_c") {
		if tag == "max" {
			return "La valoración debe estar entre 1 y 5."
		}
		return "La valoración es requerida."
	}
	switch tag {
	case "required":
		if m, ok := requiredMessages[field]; ok {
			return m
		}
		return "Este campo es requerido."
	case "oneof":
		return "El valor seleccionado no es válido."
	case "min", "max":
		if field == "numero_interacciones" {
			return "Debe ser un número mayor o igual que cero."
		}
		return "La valoración debe estar entre 1 y 5."
	}
	return "Valor no válido."
}
