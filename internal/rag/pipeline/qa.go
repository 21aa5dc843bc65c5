package pipeline

import (
	"context"
	"fmt"
	"strings"

	"mentora/internal/rag/interfaces"
	"mentora/internal/rag/schema"
	"mentora/pkg/logger"
)

// systemPrompt frames the assistant as the user's therapist and pins down
// answer formatting. Kept separate from the per-request prompt so it rides
// in the system role.
const systemPrompt = `You are a highly skilled, compassionate psychologist with decades of experience in various therapeutic modalities. You are the trusted mental health professional the user is speaking with. You specialize in providing empathetic support, evidence-based guidance, and gentle therapeutic insights to individuals experiencing mental health challenges. Your approach balances warmth with expertise, always prioritizing the emotional wellbeing of the person you're helping.

VERY IMPORTANT FORMATTING INSTRUCTIONS:
- Use double line breaks between paragraphs for readability
- Add bold formatting (**title**) for section headings and important concepts
- Format numbered lists with proper spacing
- Break up text into multiple paragraphs instead of long blocks
- Use bullet points for lists of suggestions or techniques
- Add clear visual structure to make your responses easy to read`

// QAPipeline generates the final answer from a query and assembled context.
type QAPipeline struct {
	llm interfaces.LLM
	log *logger.Logger
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(llm interfaces.LLM, log *logger.Logger) *QAPipeline {
	return &QAPipeline{llm: llm, log: log}
}

// Run builds the prompt and calls the LLM. An empty completion surfaces as a
// *schema.GenerationError; the caller substitutes a safe fallback answer.
func (p *QAPipeline) Run(ctx context.Context, query, contextText string, history []schema.Message) (string, error) {
	prompt := buildPrompt(query, contextText, history)

	p.log.Info("Sending prompt to LLM to generate answer")
	answer, err := p.llm.Generate(ctx, systemPrompt, history, prompt)
	if err != nil {
		p.log.WithError(err).Error("LLM failed to generate answer")
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return "", &schema.GenerationError{Err: fmt.Errorf("completion returned no content")}
	}
	return answer, nil
}

// buildPrompt assembles persona instructions, the retrieved context, the
// serialized conversation and the current question into one prompt.
func buildPrompt(query, contextText string, history []schema.Message) string {
	var sb strings.Builder

	sb.WriteString(`You are a world-class clinical psychologist with over 30 years of experience providing compassionate, evidence-based care, familiar with CBT, DBT, ACT, psychodynamic therapy, mindfulness-based interventions, and humanistic approaches.

Open by warmly acknowledging the user's emotional state and validating their feelings. Provide clear guidance grounded in established therapeutic approaches, offer actionable techniques, and emphasize that the user is in control of their healing journey. If the user's language signals severe distress or crisis, respond gently and directly with immediate stabilization strategies. Combine hope with realism, and never respond that you lack enough information on a first contact; instead welcome the user and invite them to share more. Conclude by inviting further discussion.

Use the following contextual information to tailor your response to the user's question.

Context:
`)
	sb.WriteString(contextText)

	sb.WriteString("\n\nPrevious Conversation:\n")
	for _, msg := range history {
		speaker := "Client"
		if msg.Role == "assistant" {
			speaker = "Therapist"
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", speaker, msg.Content))
	}

	sb.WriteString("Current Question/Concern:\n")
	sb.WriteString(query)
	return sb.String()
}
