package prompt

import "strings"

const (
	DefaultPersona      = "Bạn là một chuyên gia chăm sóc khách hàng tại một shop bán hoa."
	userQuestionLabel   = "Câu hỏi của người dùng: "
	productContextLabel = "Dựa vào thông tin sản phẩm sau đây (nếu cần), hãy trả lời câu hỏi:"
)

// Composer merges the user message and the product block into one prompt.
type Composer struct {
	persona string
}

func NewComposer() *Composer {
	return &Composer{persona: DefaultPersona}
}

func NewComposerWithPersona(persona string) *Composer {
	if strings.TrimSpace(persona) == "" {
		persona = DefaultPersona
	}
	return &Composer{persona: persona}
}

// Compose never rejects input; the message is embedded verbatim and the
// product section header is written even when contextText is empty.
func (c *Composer) Compose(userMessage string, contextText string) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(c.persona)
	b.WriteString("\n")
	b.WriteString(userQuestionLabel)
	b.WriteString(userMessage)
	b.WriteString("\n")
	b.WriteString(productContextLabel)
	b.WriteString("\n")
	b.WriteString(contextText)
	b.WriteString("\n")

	return b.String()
}
