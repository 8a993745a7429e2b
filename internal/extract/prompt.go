package extract

import (
	"fmt"
	"strings"

	"github.com/muhammadolammi/cvbuilder/internal/chat"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
)

// SystemPrompt wraps a stage instruction with the rules shared by every stage.
// It must not contain curly braces: the agent runtime treats them as template
// placeholders.
func SystemPrompt(instruction string) string {
	return strings.TrimSpace(instruction) + `

請遵守以下規則：
- 只根據使用者實際說過的內容擷取欄位，不可臆測或自行補上資料。
- 使用者沒有提到的欄位請不要輸出，提到但無法確定的欄位請列入 ambiguous。
- 日期一律轉換為 YYYY-MM 格式。
- sentences 請以繁體中文撰寫，語氣專業且簡短。
- 只回傳一個合法的 JSON 物件，不要加上 markdown 或任何說明文字。`
}

const contract = `Return a single JSON object in this format:
{
  "fields": {"<field name>": string or [string]},
  "sentences": {"<field name>": string},
  "ambiguous": [string]
}
Use the field names listed below as keys. List fields are arrays of strings.
Leave out fields the user did not mention.
"sentences" holds one short descriptive resume sentence per extracted field.
"ambiguous" lists fields the user mentioned without a clear value.`

// BuildMessage renders the per-call user message: the output contract, the fields
// still needed and the whole conversation so far.
func BuildMessage(req Request) string {
	var b strings.Builder
	b.WriteString(contract)
	b.WriteString("\n\nStage: ")
	b.WriteString(string(req.Stage))
	b.WriteString("\n\nFields:\n")
	for _, f := range req.Targets {
		kind := string(f.Type)
		if f.Type == schema.TypeDate {
			kind = "date YYYY-MM"
			if f.AllowPresent {
				kind += " or " + schema.Present
			}
		}
		need := "optional"
		if f.Required {
			need = "required"
		}
		fmt.Fprintf(&b, "- %s (%s, %s, %s)\n", f.Name, f.Label, kind, need)
	}
	b.WriteString("\nConversation:\n")
	b.WriteString(renderHistory(req.History))
	return b.String()
}

func renderHistory(h chat.History) string {
	var b strings.Builder
	for _, t := range h {
		if t.Role == chat.RoleSystem {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}
	return b.String()
}
