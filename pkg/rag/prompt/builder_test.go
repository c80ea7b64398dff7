package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompose_ContainsMessageAndContext(t *testing.T) {
	c := NewComposer()
	ctx := "\n1) Tên: Red Rose, Giá: 100k, Nội dung mô tả: fresh"

	out := c.Compose("Do you have red roses?", ctx)

	assert.Contains(t, out, DefaultPersona)
	assert.Contains(t, out, "Do you have red roses?")
	assert.Contains(t, out, ctx)
	assert.Less(t, strings.Index(out, "Do you have red roses?"), strings.Index(out, ctx))
}

func TestCompose_EmptyContextKeepsHeader(t *testing.T) {
	out := NewComposer().Compose("hello", "")

	assert.Contains(t, out, productContextLabel)
	assert.Contains(t, out, userQuestionLabel+"hello")
}

func TestCompose_EmptyMessageIsAccepted(t *testing.T) {
	out := NewComposer().Compose("", "")

	assert.Contains(t, out, userQuestionLabel+"\n")
}

func TestNewComposerWithPersona(t *testing.T) {
	out := NewComposerWithPersona("You sell tulips.").Compose("hi", "")
	assert.True(t, strings.HasPrefix(out, "\nYou sell tulips.\n"))

	assert.Equal(t, NewComposer(), NewComposerWithPersona("  "))
}
