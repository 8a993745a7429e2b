package dialogue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want command
		ok   bool
	}{
		{"修改 科系名稱 資訊工程學系", command{kind: cmdCorrect, field: "科系名稱", value: "資訊工程學系"}, true},
		{"修改 科系名稱：資訊工程學系", command{kind: cmdCorrect, field: "科系名稱", value: "資訊工程學系"}, true},
		{"修改　公司名稱　A:B", command{kind: cmdCorrect, field: "公司名稱", value: "A:B"}, true},
		{"修改: 就學期間-結束 2024-06", command{kind: cmdCorrect, field: "就學期間-結束", value: "2024-06"}, true},
		{"correct company_name Acme Corp", command{kind: cmdCorrect, field: "company_name", value: "Acme Corp"}, true},
		{"Correct job_category = SRE", command{kind: cmdCorrect, field: "job_category", value: "SRE"}, true},
		{"修改", command{kind: cmdCorrect}, true},
		{"確認", command{kind: cmdConfirm}, true},
		{" Confirm ", command{kind: cmdConfirm}, true},
		{"確認提交", command{kind: cmdConfirm}, true},
		{"修改一下，我其實是讀資工", command{}, false},
		{"我確認我的學校是台大", command{}, false},
		{"corrections are welcome", command{}, false},
	}
	for _, tt := range tests {
		got, ok := parseCommand(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
