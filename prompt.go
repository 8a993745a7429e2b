package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muhammadolammi/cvbuilder/internal/dialogue"
	"github.com/muhammadolammi/cvbuilder/internal/observability"
)

var chatFlags struct {
	importFile string
	r2Key      string
	output     string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Build a resume in an interactive chat",
	RunE:  runChat,
}

func init() {
	f := chatCmd.Flags()
	f.StringVar(&chatFlags.importFile, "import", "", "Existing resume to start from (.pdf, .docx or text)")
	f.StringVar(&chatFlags.r2Key, "r2-key", "", "R2 object key of an existing resume to start from")
	f.StringVarP(&chatFlags.output, "output", "o", "", "Write the final record as JSON to this file")
}

func banner() string {
	return `────────────────────────────────────────
 履歷協作助理
 輸入「修改 欄位名稱 新內容」可隨時修改已填寫的資料，
 輸入「確認」保留有疑慮的內容，輸入 exit 離開。
────────────────────────────────────────`
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// stdout belongs to the conversation.
	observability.SetLogger(observability.NewLogger(os.Stderr))

	cfg, svc, err := setup(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	id, rep, err := svc.StartSession(ctx, "local")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, banner())
	fmt.Fprintln(out, rep.Message)

	resume, err := loadResume(ctx, cfg.R2, chatFlags.importFile, chatFlags.r2Key)
	if err != nil {
		return fmt.Errorf("import resume: %w", err)
	}
	if resume != "" {
		fmt.Fprintln(out, "\n（已匯入現有履歷）")
		send(ctx, out, svc, id, importMessage(resume))
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "\n> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		send(ctx, out, svc, id, line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if chatFlags.output != "" {
		return writeRecord(svc, id, chatFlags.output)
	}
	return nil
}

func send(ctx context.Context, out io.Writer, svc *dialogue.Service, id, text string) {
	rep, err := svc.SendMessage(ctx, id, text)
	switch {
	case errors.Is(err, dialogue.ErrExtractionUnavailable):
		fmt.Fprintln(out, "抱歉，目前暫時無法處理您的訊息，請再傳送一次。")
	case err != nil:
		fmt.Fprintln(out, "發生錯誤："+err.Error())
	default:
		fmt.Fprintln(out, rep.Message)
	}
}

func writeRecord(svc *dialogue.Service, id, path string) error {
	st, err := svc.GetSession(id)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(st.Record.Summary(time.Now()), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	return os.WriteFile(path, body, 0o644)
}
