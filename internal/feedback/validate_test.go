package feedback

import (
	"errors"
	"testing"
)

func validIncident() Submission {
	return Submission{
		Device:      "Movil",
		Scenario:    "Confidencialidad",
		Kind:        string(KindError),
		Description: "El chatbot no respondió",
	}
}

func validationErrors(t *testing.T, err error) ValidationErrors {
	t.Helper()
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	return ve
}

func TestValidate_Incident(t *testing.T) {
	if err := Validate(validIncident(), 0); err != nil {
		t.Fatalf("valid incident rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Submission)
		field  string
	}{
		{"blank description", func(s *Submission) { s.Description = "   " }, "descripcion"},
		{"missing device", func(s *Submission) { s.Device = "" }, "dispositivo"},
		{"missing scenario", func(s *Submission) { s.Scenario = "" }, "escenario_keywords"},
		{"missing kind", func(s *Submission) { s.Kind = "" }, "tipo_feedback"},
		{"unknown kind", func(s *Submission) { s.Kind = "Otro" }, "tipo_feedback"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validIncident()
			tt.mutate(&s)
			ve := validationErrors(t, Validate(s, 0))
			if ve.FirstField() != tt.field {
				t.Errorf("FirstField = %q, want %q (all: %v)", ve.FirstField(), tt.field, ve)
			}
		})
	}
}

func TestValidate_DescriptionRequiredMessage(t *testing.T) {
	s := validIncident()
	s.Description = ""
	ve := validationErrors(t, Validate(s, 0))
	if got := ve.Fields()["descripcion"]; got != "La descripción es requerida." {
		t.Errorf("message = %q", got)
	}
}

func TestValidate_FirstFieldFollowsFormOrder(t *testing.T) {
	ve := validationErrors(t, Validate(Submission{Kind: string(KindImprovement)}, 0))
	if ve.FirstField() != "dispositivo" {
		t.Errorf("FirstField = %q, want dispositivo", ve.FirstField())
	}
	if len(ve) != 3 {
		t.Errorf("expected 3 failing fields, got %v", ve)
	}
	if ve.Fields()["dispositivo"] != "Debe seleccionar un dispositivo." {
		t.Errorf("device message = %q", ve.Fields()["dispositivo"])
	}
}

func TestValidate_Conversation(t *testing.T) {
	s := Submission{
		Device:     "Ordenador",
		Scenario:   "Dilema",
		Kind:       string(KindConversation),
		Clarity:    AnswerYes,
		Usefulness: AnswerUnsure,
	}
	if err := Validate(s, 0); err != nil {
		t.Fatalf("valid conversation rejected: %v", err)
	}

	s.Clarity = ""
	s.Usefulness = ""
	ve := validationErrors(t, Validate(s, 0))
	fields := ve.Fields()
	if _, ok := fields["claridad"]; !ok {
		t.Error("clarity should be required")
	}
	if _, ok := fields["utilidad"]; !ok {
		t.Error("usefulness should be required")
	}

	s.Clarity, s.Usefulness = AnswerNo, AnswerNo
	s.DeontologicalRating = 6
	ve = validationErrors(t, Validate(s, 0))
	if ve.FirstField() != "valoracion_deontologica" {
		t.Errorf("FirstField = %q for out-of-range rating", ve.FirstField())
	}
}

func TestValidate_CorpusActiveCriteria(t *testing.T) {
	s := Submission{Device: "Tableta", Kind: string(KindCorpus), C1: 5, C2: 4, C3: 3, C4: 2, C5: 1}

	if err := Validate(s, LegacyCorpusCriteria); err != nil {
		t.Errorf("five-criteria form rejected: %v", err)
	}

	ve := validationErrors(t, Validate(s, 0))
	if len(ve) != CorpusCriteriaCount-LegacyCorpusCriteria {
		t.Errorf("expected %d missing criteria, got %v", CorpusCriteriaCount-LegacyCorpusCriteria, ve)
	}
	if ve.FirstField() != "corpus_c6_cobertura_tematica" {
		t.Errorf("FirstField = %q", ve.FirstField())
	}
	if ve[0].Message != "La valoración es requerida." {
		t.Errorf("message = %q", ve[0].Message)
	}
}

func TestValidate_CorpusSkipsScenario(t *testing.T) {
	s := Submission{Kind: string(KindCorpus), Scenario: "ignored", C1: 1, C2: 1, C3: 1, C4: 1, C5: 1}
	ve := validationErrors(t, Validate(s, LegacyCorpusCriteria))
	if len(ve) != 1 || ve.FirstField() != "dispositivo" {
		t.Errorf("expected only device error, got %v", ve)
	}
	if r := s.Record(); r.Scenario != "" {
		t.Errorf("corpus record should not carry a scenario, got %q", r.Scenario)
	}
}

func TestSubmission_RecordDefaults(t *testing.T) {
	s := validIncident()
	s.Description = "  texto  "
	r := s.Record()
	if r.Status != StatusPending {
		t.Errorf("Status = %q, want Pendiente", r.Status)
	}
	if r.Description() != "texto" {
		t.Errorf("Description = %q, want trimmed", r.Description())
	}
	if r.Conversation != nil || r.Corpus != nil {
		t.Error("incident record should carry only the incident payload")
	}
}
