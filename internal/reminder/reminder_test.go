package reminder

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want Channel
		err  bool
	}{
		{"", ChannelNone, false},
		{"email", ChannelEmail, false},
		{" SMS ", ChannelSMS, false},
		{"post", ChannelLetter, false},
		{"fax", ChannelNone, true},
	}
	for _, tt := range tests {
		got, err := ParseChannel(tt.in)
		if tt.err {
			require.True(t, errors.Is(err, ErrUnknownChannel), "input %q", tt.in)
			continue
		}
		require.NoError(t, err)
		require.Equal(t, tt.want, got)
	}
}

func TestChannelValid(t *testing.T) {
	for _, c := range Channels {
		require.True(t, c.Valid())
	}
	require.False(t, ChannelNone.Valid())
	require.Equal(t, "None", ChannelNone.Label())
}

func TestLevel(t *testing.T) {
	require.Equal(t, "Standard", Level(1).Label())
	require.Equal(t, "Formal", Level(5).Label())
	require.Equal(t, "Level 9", Level(9).Label())
	require.False(t, Level(0).Valid())
	require.Equal(t, MinLevel, Level(-3).Clamp())
	require.Equal(t, MaxLevel, Level(8).Clamp())
	require.Equal(t, Level(4), Level(4).Clamp())
}

func TestRecommendedLevel(t *testing.T) {
	require.Equal(t, Level(1), RecommendedLevel(0))
	require.Equal(t, Level(1), RecommendedLevel(7))
	require.Equal(t, Level(3), RecommendedLevel(8))
	require.Equal(t, Level(3), RecommendedLevel(21))
	require.Equal(t, Level(5), RecommendedLevel(22))
}

func TestSubjectRuleUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want SubjectRule
	}{
		{`true`, SubjectRequired},
		{`false`, SubjectForbidden},
		{`null`, SubjectNotApplicable},
		{`"required"`, SubjectRequired},
		{`"forbidden"`, SubjectForbidden},
		{`""`, SubjectNotApplicable},
	}
	for _, tt := range tests {
		var r SubjectRule
		require.NoError(t, json.Unmarshal([]byte(tt.in), &r), tt.in)
		require.Equal(t, tt.want, r, tt.in)
	}

	var r SubjectRule
	require.Error(t, json.Unmarshal([]byte(`"maybe"`), &r))
}

func TestConstraintsValidate(t *testing.T) {
	c := Constraints{MinLength: 10, MaxLength: 160}
	require.NoError(t, c.Validate())

	c.MinLength = 200
	require.Error(t, c.Validate())

	c = Constraints{MinLength: -1}
	require.Error(t, c.Validate())
}

func TestConstraintsSummary(t *testing.T) {
	sms := &Constraints{MinLength: 10, MaxLength: 160, Subject: SubjectForbidden, EmojisAllowed: true}
	require.Equal(t, []string{"Length 10-160 chars", "No subject", "Plain text"}, sms.Summary())

	letter := &Constraints{MinLength: 300, MaxLength: 3000, Subject: SubjectRequired}
	require.Equal(t, []string{"Length 300-3000 chars", "Subject required", "Plain text", "No emojis"}, letter.Summary())

	var none *Constraints
	require.Nil(t, none.Summary())
}

func TestTemplateNormalize(t *testing.T) {
	body := strings.Repeat("é", PreviewLength+5)
	tpl := Template{ID: "a", Body: body, LevelMin: 1, LevelMax: 2}
	tpl.Normalize()

	require.Equal(t, StatusValid, tpl.Status)
	require.Equal(t, PreviewLength+5, tpl.FullBodyLength)
	require.Equal(t, strings.Repeat("é", PreviewLength)+"…", tpl.BodyPreview)
	require.True(t, tpl.SupportsLevel(2))
	require.False(t, tpl.SupportsLevel(3))
	require.Equal(t, "1-2", tpl.LevelRange())
}

func TestValidationStatusSelectable(t *testing.T) {
	require.True(t, StatusValid.Selectable())
	require.True(t, StatusWarning.Selectable())
	require.False(t, StatusError.Selectable())
	require.False(t, ValidationStatus("invalid").Selectable())
	require.False(t, ValidationStatus("ERROR").Selectable())
}

func TestTemplateNormalize_Status(t *testing.T) {
	tests := []struct {
		in   ValidationStatus
		want ValidationStatus
	}{
		{"", StatusValid},
		{"valid", StatusValid},
		{" Warning ", StatusWarning},
		{"ERROR", StatusError},
		{"invalid", StatusError},
		{"vaild", StatusError},
	}
	for _, tt := range tests {
		tpl := Template{ID: "a", Body: "body", Status: tt.in}
		tpl.Normalize()
		require.Equal(t, tt.want, tpl.Status, "status %q", tt.in)
	}
}

func TestTemplateNormalize_ClampsScore(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-3, 0},
		{0, 0},
		{92, 92},
		{150, MaxScore},
	}
	for _, tt := range tests {
		score := tt.in
		tpl := Template{ID: "a", Body: "body", Score: &score}
		tpl.Normalize()
		require.NotNil(t, tpl.Score)
		require.Equal(t, tt.want, *tpl.Score, "score %d", tt.in)
	}

	tpl := Template{ID: "a", Body: "body"}
	tpl.Normalize()
	require.Nil(t, tpl.Score)
}

func TestFormRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.yml")

	missing, err := LoadForm(path)
	require.NoError(t, err)
	require.Equal(t, &Form{}, missing)

	f := &Form{Channel: ChannelSMS, Level: 3, SubjectID: "m-42", DaysOverdue: 12, Content: "Hello"}
	require.NoError(t, f.Save(path))

	got, err := LoadForm(path)
	require.NoError(t, err)
	require.Equal(t, f, got)
}

func TestFormValidate(t *testing.T) {
	f := &Form{Channel: "Mail"}
	require.NoError(t, f.Validate())
	require.Equal(t, ChannelEmail, f.Channel)

	require.Error(t, (&Form{Channel: "pigeon"}).Validate())
	require.Error(t, (&Form{Level: 6}).Validate())
	require.Error(t, (&Form{DaysOverdue: -1}).Validate())
}
