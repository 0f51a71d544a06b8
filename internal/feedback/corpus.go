package feedback

// Criterion describes one numbered corpus-validation dimension.
type Criterion struct {
	Key   string `json:"key"`
	Code  string `json:"code"`
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
}

// CorpusCriteria lists C1..C11 in order. The document keys match the ones
// written by every version of the corpus questionnaire.
var CorpusCriteria = [CorpusCriteriaCount]Criterion{
	{Key: "corpus_c1_fuentes_pertinentes", Code: "C1", Label: "Fuentes pertinentes",
		Text: "La selección de fuentes éticas complementarias (además del Código Deontológico) es pertinente y refuerza la autoridad del conocimiento de la IA."},
	{Key: "corpus_c2_estructura_exhaustiva", Code: "C2", Label: "Estructura exhaustiva",
		Text: "La estructuración y optimización de la base de conocimiento ética es exhaustiva y abarca todos los principios deontológicos relevantes."},
	{Key: "corpus_c3_libre_info_no_autorizada", Code: "C3", Label: "Libre de información no autorizada",
		Text: "La base de conocimiento está libre de información no autorizada o no validada por expertos del sector."},
	{Key: "corpus_c4_detalle_suficiente", Code: "C4", Label: "Detalle suficiente",
		Text: "El corpus ético es suficientemente detallado para facilitar la resolución de dilemas éticos complejos."},
	{Key: "corpus_c5_core_fiable_legitimo", Code: "C5", Label: "Core fiable y legítimo",
		Text: "Considero que el \"core ético validado\" sobre el que se alimenta la IA es formalmente fiable y legítimo."},
	{Key: "corpus_c6_cobertura_tematica", Code: "C6", Label: "Cobertura temática"},
	{Key: "corpus_c7_actualizacion_vigencia", Code: "C7", Label: "Actualización y vigencia"},
	{Key: "corpus_c8_precision_rigor", Code: "C8", Label: "Precisión y rigor"},
	{Key: "corpus_c9_representatividad_diversidad", Code: "C9", Label: "Representatividad y diversidad"},
	{Key: "corpus_c10_redaccion_claridad", Code: "C10", Label: "Redacción y claridad"},
	{Key: "corpus_c11_referenciacion_trazabilidad", Code: "C11", Label: "Referenciación y trazabilidad"},
}

// LegacyCorpusCriteria is the number of criteria asked by the first
// questionnaire revision.
const LegacyCorpusCriteria = 5

// clampActive bounds an active-criteria count to a usable range.
func clampActive(n int) int {
	if n <= 0 || n > CorpusCriteriaCount {
		return CorpusCriteriaCount
	}
	return n
}
