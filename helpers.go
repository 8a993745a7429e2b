package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/streadway/amqp"

	"github.com/muhammadolammi/cvbuilder/internal/config"
)

const (
	mimeText = "text/plain"
	mimePDF  = "application/pdf"
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// maxResumeBytes bounds downloaded and imported résumé files.
const maxResumeBytes = 10 << 20

const sessionUpdatesExchange = "session_updates"

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTag          = regexp.MustCompile(`<[^>]*>`)
)

// --- File Download ---

func newAwsConfig(ctx context.Context, r2 config.R2Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r2.AccessKey, r2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
}

func newR2Client(awsConfig aws.Config, accountID string) *s3.Client {
	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})
}

func DownloadFromR2(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	obj, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s/%s: %w", bucket, key, err)
	}
	defer obj.Body.Close()

	data, err := readLimited(obj.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return data, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxResumeBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResumeBytes {
		return nil, fmt.Errorf("file exceeds %d bytes", maxResumeBytes)
	}
	return data, nil
}

// --- Resume Import ---

func mimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return mimePDF
	case ".docx":
		return mimeDocx
	default:
		return mimeText
	}
}

func ExtractResumeText(mime string, data []byte) (string, error) {
	if mime == mimeText {
		return string(data), nil
	}
	if len(data) == 0 && (mime == mimePDF || mime == mimeDocx) {
		return "", fmt.Errorf("empty %s file", mime)
	}
	r := bytes.NewReader(data)
	switch mime {
	case mimePDF:
		return pdfText(r)
	case mimeDocx:
		return docxText(r)
	}
	return "", fmt.Errorf("unsupported file type: %s", mime)
}

func pdfText(r *bytes.Reader) (string, error) {
	doc, err := pdf.NewReader(r, r.Size())
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	plain, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	return sb.String(), nil
}

// docxText returns the paragraphs of the main document part, one per line.
func docxText(r *bytes.Reader) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, r.Size())
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	xml := docxParagraphEnd.ReplaceAllString(doc.Editable().GetContent(), "\n")
	text := html.UnescapeString(docxTag.ReplaceAllString(xml, ""))
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n"), nil
}

// loadResume reads an existing résumé from a local file or an R2 object key.
func loadResume(ctx context.Context, r2 config.R2Config, path, key string) (string, error) {
	var (
		data []byte
		name string
		err  error
	)
	switch {
	case path != "":
		name = path
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("read resume: %w", err)
		}
		data, err = readLimited(f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("read resume %s: %w", path, err)
		}
	case key != "":
		if !r2.Enabled() {
			return "", fmt.Errorf("r2 import needs R2_ACCOUNT_ID, R2_BUCKET, R2_ACCESS_KEY and R2_SECRET_KEY")
		}
		awsConfig, err := newAwsConfig(ctx, r2)
		if err != nil {
			return "", fmt.Errorf("error creating aws config: %w", err)
		}
		client := newR2Client(awsConfig, r2.AccountID)
		name = key
		data, err = retry(ctx, 3, func() ([]byte, error) {
			return DownloadFromR2(ctx, client, r2.Bucket, key)
		})
		if err != nil {
			return "", err
		}
	default:
		return "", nil
	}

	text, err := ExtractResumeText(mimeFromName(name), data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// importMessage turns résumé text into the first user turn.
func importMessage(text string) string {
	return "以下是我目前的履歷內容，請從中整理資料：\n" + text
}

// publishSessionUpdate sends one update to the session's routing key so the
// frontend channel for that session receives it.
func publishSessionUpdate(rabbitConn *amqp.Connection, sessionID string, update SessionUpdate) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal session update: %w", err)
	}
	ch, err := rabbitConn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return ch.Publish(sessionUpdatesExchange, "session."+sessionID, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    update.Timestamp,
		Body:         body,
	})
}
