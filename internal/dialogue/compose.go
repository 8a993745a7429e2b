package dialogue

import (
	"fmt"
	"strings"

	"github.com/muhammadolammi/cvbuilder/internal/record"
	"github.com/muhammadolammi/cvbuilder/internal/schema"
	"github.com/muhammadolammi/cvbuilder/internal/stage"
)

// MaxFormatErrors is the number of unreadable answers for one field after which the
// re-prompt carries an explicit format example.
const MaxFormatErrors = 3

const greeting = "您好！我是您的履歷協作助理，接下來會依序收集學歷背景、工作經歷與專業技能。"

func stageIntro(st *schema.StageDefinition) string {
	return fmt.Sprintf("【%s】進度 %d%%\n%s", st.Title, st.Progress, st.Opening)
}

// echo confirms the fields written this turn: label, value and one resume sentence.
func echo(rec *record.Record, names []string, sentences map[string]string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("已記錄：")
	for _, name := range names {
		f, ok := rec.Schema().Field(name)
		if !ok {
			continue
		}
		v := rec.Value(name)
		sentence := strings.TrimSpace(sentences[name])
		if sentence == "" && f.Sentence != "" {
			sentence = strings.ReplaceAll(f.Sentence, "{value}", v.String())
		}
		fmt.Fprintf(&b, "\n✅ %s：%s", f.Label, v)
		if sentence != "" {
			fmt.Fprintf(&b, "（%s）", sentence)
		}
	}
	return b.String()
}

func formatHint(f schema.Field) string {
	switch f.Type {
	case schema.TypeDate:
		hint := "請使用 YYYY-MM 格式，例如 2021-03"
		if f.AllowPresent {
			hint += "；仍在學或在職請填「" + schema.Present + "」"
		}
		return hint
	case schema.TypeList:
		return "多個項目請以「、」分隔，例如：Go、Python"
	default:
		return "請直接輸入完整名稱"
	}
}

// clarify explains every anomaly of the stage and asks the user to resolve it.
func clarify(rec *record.Record, names []string) string {
	s := rec.Schema()
	var lines []string
	done := make(map[string]bool)
	for _, name := range names {
		if done[name] {
			continue
		}
		f, _ := s.Field(name)
		st, _ := rec.State(name)
		switch st.Kind {
		case record.AnomalyRange:
			r, _ := s.RangeOf(name)
			start, _ := s.Field(r.Start)
			end, _ := s.Field(r.End)
			done[r.Start], done[r.End] = true, true
			lines = append(lines, fmt.Sprintf("「%s」（%s）早於「%s」（%s），請確認正確的日期。可輸入「修改 %s YYYY-MM」更新，若內容無誤，請回覆「確認」。",
				end.Label, rec.Value(r.End), start.Label, rec.Value(r.Start), end.Label))
		case record.AnomalyConflict:
			lines = append(lines, fmt.Sprintf("「%s」先前記錄為「%s」，這次提到「%s」，請問哪一個正確？可輸入「修改 %s %s」更新，或回覆「確認」保留原本的內容。",
				f.Label, st.Value, st.Candidate, f.Label, st.Candidate))
		default:
			line := fmt.Sprintf("抱歉，我無法辨識「%s」的內容「%s」，請再提供一次，或輸入「修改 %s 新內容」。", f.Label, st.Candidate, f.Label)
			if st.FormatErrors >= MaxFormatErrors {
				line += "💡 " + formatHint(f) + "。"
			}
			lines = append(lines, line)
		}
		done[name] = true
	}
	return strings.Join(lines, "\n")
}

func forcedNote(s *schema.Schema, t *stage.Transition) string {
	if !t.Forced {
		return ""
	}
	if len(t.Skipped) > 0 {
		return "⏭ 已達本階段提問上限，以下欄位先略過：" + labels(s, t.Skipped) + "。"
	}
	return "⏭ 已達本階段提問上限，先進入下一個階段。"
}

func labels(s *schema.Schema, names []string) string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if f, ok := s.Field(name); ok {
			out = append(out, f.Label)
		}
	}
	return strings.Join(out, "、")
}

func statusText(e record.Entry) string {
	switch e.Status {
	case record.StatusConfirmed:
		if e.Overridden {
			return e.Value.String() + "（已確認）"
		}
		return e.Value.String()
	case record.StatusSkipped:
		return "（已略過）"
	case record.StatusAnomaly:
		return "（待確認：" + e.Reason + "）"
	default:
		return "（未填寫）"
	}
}

// renderSummary is the closing message listing every field.
func renderSummary(s *schema.Schema, sum record.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎉 履歷資料收集完成！進度 100%%，完整度 %d%%", sum.Completeness)
	for _, st := range s.Stages {
		fmt.Fprintf(&b, "\n\n【%s】", st.Title)
		for _, e := range sum.Fields {
			if e.Stage == st.ID {
				fmt.Fprintf(&b, "\n- %s：%s", e.Label, statusText(e))
			}
		}
	}
	if sum.Employment != "" {
		fmt.Fprintf(&b, "\n\n目前狀態：%s", sum.Employment)
	}
	if sum.RemainingOptional > 0 {
		fmt.Fprintf(&b, "\n尚有 %d 個選填欄位未填寫。", sum.RemainingOptional)
	}
	b.WriteString("\n如需修改，請輸入「修改 欄位名稱 新內容」。")
	return b.String()
}

func join(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n\n")
}
