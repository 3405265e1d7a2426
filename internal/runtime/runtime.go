package runtime

import (
	"github.com/ccastromar/cgs-code-generation-system/internal/llm"
)

type Runtime struct {
	DefinitionsLoaded bool
	Model             string
	LLMClient         llm.LLMClient
}
