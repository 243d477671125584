package spec

import "github.com/ziadkadry99/pneumabot/internal/textnorm"

// Category is the product family a message is about, decided once per turn.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryCylinder
	CategoryValve
	CategoryAccessory
)

func (c Category) String() string {
	switch c {
	case CategoryCylinder:
		return "cylinder"
	case CategoryValve:
		return "valve"
	case CategoryAccessory:
		return "accessory"
	default:
		return "unknown"
	}
}

// Keyword tables are in Tokenize form.
var (
	accessoryKeywords = []string{
		"bobin", "coil", "tapa", "plug", "sensor", "hortum", "hose", "rakor", "raccor",
		"fitting", "susturucu", "silencer", "conta", "seal", "baglanti elemani", "manometre",
		"sartlandirici", "filtre", "regulator",
	}
	cylinderKeywords = []string{"silindir", "cylinder", "piston"}
	valveKeywords    = []string{"valf", "valve", "vana"}

	// FeatureKeywords maps each feature key to the words that signal it.
	FeatureKeywords = map[string][]string{
		"magnetic":      {"manyetik", "magnetik", "magnet"},
		"cushioned":     {"amortisorlu", "amortisor", "yastikli"},
		"double_acting": {"cift etkili", "double acting"},
		"single_acting": {"tek etkili", "single acting"},
		"stainless":     {"paslanmaz", "inox", "stainless"},
		"pneumatic":     {"pnomatik", "havali", "pneumatic"},
	}

	friendlyCues = []string{"canim", "kardesim", "dostum", "abi", "abla", "reis", "kanka"}
)

// Classify maps a message to a product category. Accessory words win, so
// "valve coil" is an accessory rather than a valve.
func Classify(text string) Category {
	t := textnorm.Tokenize(text)
	switch {
	case textnorm.HasWord(t, accessoryKeywords...):
		return CategoryAccessory
	case textnorm.HasWord(t, cylinderKeywords...):
		return CategoryCylinder
	case textnorm.HasWord(t, valveKeywords...):
		return CategoryValve
	default:
		return CategoryUnknown
	}
}

// DetectFeatures returns the feature keys mentioned in text.
func DetectFeatures(text string) []string {
	t := textnorm.Tokenize(text)
	var out []string
	for _, key := range featureOrder {
		if textnorm.HasWord(t, FeatureKeywords[key]...) {
			out = append(out, key)
		}
	}
	return out
}

var featureOrder = []string{"magnetic", "cushioned", "double_acting", "single_acting", "stainless", "pneumatic"}

// MentionsFeature reports whether a product name carries one of the keywords
// of feature. Unknown feature keys are matched literally.
func MentionsFeature(name, feature string) bool {
	t := textnorm.Tokenize(name)
	keywords, ok := FeatureKeywords[feature]
	if !ok {
		keywords = []string{textnorm.Tokenize(feature)}
	}
	return textnorm.HasWord(t, keywords...)
}

// Tone is the register the assistant answers in.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
)

// DetectTone returns ToneFriendly when text contains a familiar address.
func DetectTone(text string) Tone {
	if textnorm.HasWord(textnorm.Tokenize(text), friendlyCues...) {
		return ToneFriendly
	}
	return ToneProfessional
}

// Sticky combines the current tone with a newly detected one. Once friendly,
// a conversation stays friendly.
func (t Tone) Sticky(detected Tone) Tone {
	if t == ToneFriendly || detected == ToneFriendly {
		return ToneFriendly
	}
	return ToneProfessional
}
