package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/domain"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/validate"
)

func newTestMerger() *Merger {
	c := domain.NewClassifier(validate.DefaultLexicon().PersonalDomains, domain.NewMapCache())
	return New(c, nil)
}

func fields(r model.ContactRecord) map[model.Field]string {
	out := make(map[model.Field]string, len(model.Fields))
	for _, f := range model.Fields {
		out[f] = r.Get(f)
	}
	return out
}

func TestMerge_EmailCaseInsensitive(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	a := []model.ContactRecord{{Email: "jdoe@acme.com", Source: model.ChannelHTML}}
	b := []model.ContactRecord{{Email: "JDoe@ACME.com", Phone: "212-555-1212", Source: model.ChannelPDF}}

	res := m.Merge(a, b)
	require.Len(t, res.Records, 1)
	got := res.Records[0]
	assert.Equal(t, "jdoe@acme.com", got.Email)
	assert.Equal(t, "+1-212-555-1212", got.Phone)
	assert.Equal(t, []model.Channel{model.ChannelHTML, model.ChannelPDF}, got.Sources)
	assert.Equal(t, "acme.com", got.Domain)
	assert.Equal(t, model.DomainBusiness, got.DomainType)
	assert.Equal(t, map[MatchKey]int{MatchEmail: 1}, res.Counts())
}

func TestMerge_FirstListWins(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	a := []model.ContactRecord{{Name: "Jane Doe", Email: "jdoe@acme.com", Title: "Partner"}}
	b := []model.ContactRecord{{Name: "Janet Doe", Email: "jdoe@acme.com", Title: "Counsel", Location: "Boston, MA"}}

	res := m.Merge(a, b)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Jane Doe", res.Records[0].Name)
	assert.Equal(t, "Partner", res.Records[0].Title)
	assert.Equal(t, "Boston, MA", res.Records[0].Location)
}

func TestMerge_MatchOrder(t *testing.T) {
	t.Parallel()

	a := []model.ContactRecord{
		{Name: "Ann Lee", Email: "alee@firm.com", Phone: "+1-212-555-0001"},
		{Name: "Bo Chan", Phone: "+1-212-555-0002"},
		{Name: "Cy Park", Email: "cpark@firm.com"},
		{Name: "Di Ross"},
	}

	tests := []struct {
		name   string
		rec    model.ContactRecord
		key    MatchKey
		target int
	}{
		{"email", model.ContactRecord{Email: "ALEE@firm.com"}, MatchEmail, 0},
		{"phone", model.ContactRecord{Phone: "(212) 555-0002", Title: "Associate"}, MatchPhone, 1},
		{"domain and name", model.ContactRecord{Name: "cy  park", Email: "cy.park@firm.com"}, MatchDomainName, 2},
		{"name", model.ContactRecord{Name: "Di Ross", Phone: "212-555-0009"}, MatchName, 3},
		{"none", model.ContactRecord{Name: "Ed Wu"}, MatchNone, 4},
		{"phone despite different email", model.ContactRecord{Email: "other@else.com", Phone: "212-555-0001"}, MatchPhone, 0},
		{"name despite different email", model.ContactRecord{Name: "Ann Lee", Email: "ann@gmail.com"}, MatchName, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := newTestMerger().Merge(a, []model.ContactRecord{tt.rec})
			require.Len(t, res.Matches, 1)
			assert.Equal(t, tt.key, res.Matches[0].Key)
			assert.Equal(t, tt.target, res.Matches[0].Target)
		})
	}
}

func TestMerge_DifferentMailboxesSamePerson(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	a := []model.ContactRecord{{Name: "Ann Lee", Email: "ann@acme.com", Phone: "212-555-1212"}}

	res := m.Merge(a, []model.ContactRecord{{Email: "a.lee@acme-law.com", Phone: "(212) 555-1212", Title: "Partner"}})
	require.Len(t, res.Records, 1)
	assert.Equal(t, MatchPhone, res.Matches[0].Key)
	assert.Equal(t, "ann@acme.com", res.Records[0].Email)
	assert.Equal(t, "Partner", res.Records[0].Title)

	res = m.Merge(a, []model.ContactRecord{{Name: "Ann Lee", Email: "ann.lee@gmail.com"}})
	require.Len(t, res.Records, 1)
	assert.Equal(t, MatchName, res.Matches[0].Key)
	assert.Equal(t, "ann@acme.com", res.Records[0].Email)
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	a := []model.ContactRecord{{Email: "jdoe@acme.com", Sources: []model.Channel{model.ChannelHTML}}}
	b := []model.ContactRecord{{Email: "jdoe@acme.com", Phone: "2125551212", Source: model.ChannelPDF}}

	_ = m.Merge(a, b)
	assert.Empty(t, a[0].Phone)
	assert.Equal(t, []model.Channel{model.ChannelHTML}, a[0].Sources)
	assert.Equal(t, "2125551212", b[0].Phone)
}

func TestMerge_UnmatchedKeepsChannel(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	res := m.Merge(
		[]model.ContactRecord{{Name: "Ann Lee", Source: model.ChannelHTML}},
		[]model.ContactRecord{{Name: "Bo Chan", Source: model.ChannelOCR}},
	)
	require.Len(t, res.Records, 2)
	assert.Equal(t, model.ChannelOCR, res.Records[1].Source)
	assert.Equal(t, []model.Channel{model.ChannelOCR}, res.Records[1].Sources)
}

func TestMerge_Idempotent(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	a := []model.ContactRecord{
		{Name: "Ann Lee", Email: "alee@firm.com"},
		{Name: "Bo Chan", Phone: "+1-212-555-0002"},
	}
	b := []model.ContactRecord{
		{Email: "alee@firm.com", Phone: "212-555-0001"},
		{Name: "Bo Chan", Title: "Counsel"},
		{Name: "Ed Wu", Email: "ewu@firm.com"},
	}

	once := m.Merge(a, b)
	twice := m.Merge(once.Records, b)
	assert.Equal(t, once.Records, twice.Records)
}

func TestMerge_Associative(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	a := []model.ContactRecord{{Name: "Ann Lee", Email: "alee@firm.com"}}
	b := []model.ContactRecord{{Email: "alee@firm.com", Phone: "212-555-0001"}}
	c := []model.ContactRecord{{Phone: "2125550001", Title: "Partner", Location: "New York, NY"}}

	left := m.Merge(m.Merge(a, b).Records, c).Records
	right := m.Merge(a, m.Merge(b, c).Records).Records

	require.Len(t, left, 1)
	require.Len(t, right, 1)
	assert.Equal(t, fields(left[0]), fields(right[0]))
	assert.Equal(t, "Partner", left[0].Title)
}

func TestMerge_RescoresTouchedRecords(t *testing.T) {
	t.Parallel()
	var calls int
	m := New(nil, func(r *model.ContactRecord) {
		calls++
		r.Confidence = model.ConfidenceHigh
	})

	res := m.Merge(
		[]model.ContactRecord{{Email: "a@b.co", Confidence: model.ConfidenceLow}, {Name: "Untouched Person"}},
		[]model.ContactRecord{{Email: "a@b.co", Name: "A B"}, {Name: "New Person"}},
	)
	assert.Equal(t, 2, calls)
	assert.Equal(t, model.ConfidenceHigh, res.Records[0].Confidence)
	assert.Empty(t, res.Records[1].Confidence)
	assert.Equal(t, model.ConfidenceHigh, res.Records[2].Confidence)
}

func TestFold(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	res := m.Fold(
		[]model.ContactRecord{{Email: "jdoe@acme.com", Source: model.ChannelHTML}},
		[]model.ContactRecord{{Email: "jdoe@acme.com", Name: "Jane Doe", Source: model.ChannelPDF}},
		[]model.ContactRecord{{Name: "Jane Doe", Phone: "212-555-1212", Source: model.ChannelOCR}},
	)
	require.Len(t, res.Records, 1)
	got := res.Records[0]
	assert.Equal(t, "Jane Doe", got.Name)
	assert.Equal(t, "+1-212-555-1212", got.Phone)
	assert.Equal(t, []model.Channel{model.ChannelHTML, model.ChannelPDF, model.ChannelOCR}, got.Sources)
	assert.Len(t, res.Matches, 3)
}

func TestFold_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, newTestMerger().Fold().Records)
}

func TestMerge_DropsRecordsWithoutIdentity(t *testing.T) {
	t.Parallel()
	m := newTestMerger()

	a := []model.ContactRecord{
		{Title: "Partner", Location: "Boston, MA"},
		{Name: "Ann Lee", Email: "alee@firm.com"},
	}
	b := []model.ContactRecord{
		{Name: "   ", Title: "Counsel"},
		{Email: "alee@firm.com", Phone: "212-555-0001"},
	}

	res := m.Merge(a, b)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 2, res.Dropped)
	for _, r := range res.Records {
		assert.True(t, r.HasIdentity())
	}
	require.Len(t, res.Matches, 1)
	assert.Equal(t, Match{Index: 1, Target: 0, Key: MatchEmail}, res.Matches[0])

	folded := m.Fold(a, b, []model.ContactRecord{{Location: "Paris"}})
	assert.Equal(t, 3, folded.Dropped)
	assert.Len(t, folded.Records, 1)
}
