package pipeline

// Severity classifies how a keyword category weighs into the risk score.
type Severity int

const (
	// SeverityCritical marks legal, structural, or provenance risk.
	SeverityCritical Severity = iota
	// SeverityGeneral marks softer signals like urgency or bargain language.
	SeverityGeneral
)

// KeywordCategory is one named group of trigger phrases. Matching is raw
// case-insensitive substring containment, no word boundaries; that mirrors
// the upstream dataset this scoring was calibrated against.
type KeywordCategory struct {
	Name     string
	Severity Severity
	Phrases  []string
}

// Ruleset bundles the phrase dictionaries the filter and scorer run on. The
// dictionaries are plain data so categories can be extended without touching
// the scoring algorithm.
type Ruleset struct {
	// Noise lists apparel/accessory phrases; a listing matching any of them
	// is dropped before scoring.
	Noise []string

	// Categories are the suspicious-keyword groups.
	Categories []KeywordCategory

	// ConditionPhrases are "like new" claims used by the price/condition
	// inconsistency factor.
	ConditionPhrases []string
}

// DefaultRuleset returns the rule dictionaries for the motorbike category on
// the Spanish marketplace.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Noise: []string{
			"casco", "guante", "chaqueta", "pantalón", "pantalon", "botas",
			"espaliers", "espalda", "goretex", "chamarra", "bota", "mono",
			"traje", "talla", "alforja", "mochila", "maleta", "chaleco",
			"protector", "protección", "impermeable", "capa de lluvia ", "zapatos",
			"caballete", "mini", "herramientas", "candado", "antirrobo", "cubremanos",
			"alquiler", "garaje", "baul",
		},
		Categories: []KeywordCategory{
			{
				Name:     "undocumented-papers",
				Severity: SeverityCritical,
				Phrases:  []string{"sin papeles", "sin documentacion", "sin documento", "no papeles", "papeles pendientes"},
			},
			{
				Name:     "pending-transfer",
				Severity: SeverityCritical,
				Phrases:  []string{"transferencia pendiente"},
			},
			{
				Name:     "no-inspection",
				Severity: SeverityCritical,
				Phrases:  []string{"sin itv", "sin itp", "no itv", "no itp", "itv caducada", "itp caducada"},
			},
			{
				Name:     "parts-only",
				Severity: SeverityCritical,
				Phrases:  []string{"para piezas", "para despiece", "despiece", "solo piezas"},
			},
			{
				Name:     "unknown-mileage",
				Severity: SeverityCritical,
				Phrases:  []string{"km desconocidos", "kilometraje desconocido"},
			},
			{
				Name:     "suspicious-provenance",
				Severity: SeverityCritical,
				Phrases:  []string{"importacion", "importada", "procedencia dudosa", "comprada en", "encontrada"},
			},
			{
				Name:     "urgency",
				Severity: SeverityGeneral,
				Phrases:  []string{"urgente", "solo hoy", "solo esta semana", "rapido", "rápido", "venta rapida"},
			},
			{
				Name:     "suspiciously-cheap",
				Severity: SeverityGeneral,
				Phrases:  []string{"ganga", "precio bajo", "muy barato", "chollo", "oferta"},
			},
		},
		ConditionPhrases: []string{"como nueva", "perfecto estado", "muy buen estado", "impecable"},
	}
}
