package embed

// Family describes a retrieval model family and its chunking window. The
// window/stride pairs track each family's context limits and must stay as
// measured; unifying them degrades recall.
type Family struct {
	Name   string
	Window int
	Stride int

	// Multimodal families carry an image head; text still goes through the
	// companion text embedder so dimensions stay uniform.
	Multimodal bool
}

var families = map[string]Family{
	"siglip":     {Name: "siglip", Window: 200, Stride: 150, Multimodal: true},
	"clip":       {Name: "clip", Window: 200, Stride: 150, Multimodal: true},
	"colpali":    {Name: "colpali", Window: 400, Stride: 300},
	"all-minilm": {Name: "all-minilm", Window: 1200, Stride: 800},
}

// FamilyFor resolves a retrieval model name; unknown names get the
// text-model default.
func FamilyFor(model string) Family {
	if f, ok := families[model]; ok {
		return f
	}
	return families["all-minilm"]
}
