package submission

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/datastore"
	"merchant-onboarding/internal/events"
	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/onboarding"
	"merchant-onboarding/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }

func (c *recordingCache) SetJSON(context.Context, string, any, time.Duration) error { return nil }

func (c *recordingCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.invalidated = append(c.invalidated, prefix)
	return nil
}

func (c *recordingCache) Close() error { return nil }

type recordingNotifier struct {
	got []store.Notification
}

func (n *recordingNotifier) Notify(x store.Notification) { n.got = append(n.got, x) }

// noCallStore panics on any call.
type noCallStore struct {
	Store
}

type failingStore struct {
	*datastore.Memory
	failOn Section
}

func (f *failingStore) InsertBusinessLocations(ctx context.Context, id string, l []onboarding.BusinessLocation) error {
	if f.failOn == SectionBusinessLocations {
		return errors.New("violates check constraint")
	}
	return f.Memory.InsertBusinessLocations(ctx, id, l)
}

func validData() *onboarding.Data {
	d := onboarding.NewData()
	d.ContactInfo = onboarding.ContactInfo{FirstName: "Ján", LastName: "Novák", Email: "jan@example.sk", Phone: "900123456"}
	d.CompanyInfo.CompanyName = "Kaviareň s.r.o."
	d.AddLocation(onboarding.BusinessLocation{Name: "Centrum", EstimatedTurnover: decimal.NewFromInt(10000)})
	d.AddAuthorizedPerson(onboarding.AuthorizedPerson{FirstName: "Ján", LastName: "Novák", Email: "jan@example.sk"})
	return d
}

func TestSubmit_ValidationFailsWithoutStoreCalls(t *testing.T) {
	p := New(noCallStore{})
	d := validData()
	d.CompanyInfo.CompanyName = " "

	res := p.Submit(context.Background(), "", d)

	assert.False(t, res.Success)
	assert.Equal(t, SectionValidation, res.Section)
	assert.Equal(t, []string{onboarding.FieldCompanyName}, res.Missing)
	assert.Contains(t, res.Error, "Vyplňte povinné údaje")
}

func TestSubmit_CreatesSubmittedContract(t *testing.T) {
	mem := datastore.NewMemory()
	pub := &recordingPublisher{}
	c := &recordingCache{}
	n := &recordingNotifier{}
	p := New(mem, WithEvents(pub), WithCache(c), WithNotifier(n))
	ctx := context.Background()

	res := p.Submit(ctx, "", validData())

	require.True(t, res.Success, res.Error)
	assert.Regexp(t, `^ZML-\d{4}-\d{6}$`, res.ContractNumber)

	contract, err := mem.GetContract(ctx, res.ContractID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusSubmitted, contract.Status)
	assert.NotNil(t, contract.SubmittedAt)

	notes, err := mem.ListNotifications(ctx, true, 0)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, store.NotificationContractSubmitted, notes[0].Kind)
	assert.Contains(t, notes[0].Message, res.ContractNumber)
	require.Len(t, n.got, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.ContractSubmitted, pub.events[0].Type)
	assert.Equal(t, []string{AdminCachePrefix}, c.invalidated)
}

func TestSubmit_ResubmissionIsIdempotent(t *testing.T) {
	mem := datastore.NewMemory()
	p := New(mem)
	ctx := context.Background()
	d := validData()

	first := p.Submit(ctx, "", d)
	require.True(t, first.Success)
	second := p.Submit(ctx, first.ContractID, d)
	require.True(t, second.Success)

	assert.Equal(t, first.ContractID, second.ContractID)
	assert.Equal(t, first.ContractNumber, second.ContractNumber)

	stored, err := mem.LoadAggregate(ctx, first.ContractID)
	require.NoError(t, err)
	assert.Len(t, stored.BusinessLocations, 1)
	assert.Len(t, stored.AuthorizedPersons, 1)

	rows, err := mem.ListContracts(ctx, store.ContractFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSubmit_UnknownContractIDCreatesNew(t *testing.T) {
	mem := datastore.NewMemory()
	res := New(mem).Submit(context.Background(), "does-not-exist", validData())
	require.True(t, res.Success)
	assert.NotEqual(t, "does-not-exist", res.ContractID)
}

func TestSubmit_SectionFailureIsLocalized(t *testing.T) {
	fs := &failingStore{Memory: datastore.NewMemory(), failOn: SectionBusinessLocations}
	pub := &recordingPublisher{}
	ctx := context.Background()

	res := New(fs, WithEvents(pub)).Submit(ctx, "", validData())

	assert.False(t, res.Success)
	assert.Equal(t, SectionBusinessLocations, res.Section)
	assert.Equal(t, "Nepodarilo sa uložiť prevádzky.", res.Error)
	assert.NotEmpty(t, res.ContractID)
	assert.Empty(t, pub.events, "no event for a failed submission")

	notes, err := fs.ListNotifications(ctx, false, 0)
	require.NoError(t, err)
	assert.Empty(t, notes)

	stored, err := fs.LoadAggregate(ctx, res.ContractID)
	require.NoError(t, err)
	assert.Equal(t, "Ján", stored.ContactInfo.FirstName, "earlier sections stay written")
	assert.Empty(t, stored.AuthorizedPersons, "later sections are not attempted")
}

func TestSubmit_EnglishLocale(t *testing.T) {
	fs := &failingStore{Memory: datastore.NewMemory(), failOn: SectionBusinessLocations}
	res := New(fs, WithLocale("en")).Submit(context.Background(), "", validData())
	assert.Equal(t, "Failed to save business locations.", res.Error)
	assert.Equal(t, "Submission failed", res.Notice("en").Title)
	assert.Equal(t, onboarding.NoticeDestructive, res.Notice("en").Variant)
}

func TestSubmit_RecalculatesFees(t *testing.T) {
	mem := datastore.NewMemory()
	ctx := context.Background()
	res := New(mem, WithFeeCalculator(fees.NewCalculator(fees.DefaultRates()))).Submit(ctx, "", validData())
	require.True(t, res.Success)

	stored, err := mem.LoadAggregate(ctx, res.ContractID)
	require.NoError(t, err)
	assert.True(t, stored.Fees.TotalTurnover.Equal(decimal.NewFromInt(10000)))
	assert.True(t, stored.Fees.CustomerPayments.IsPositive())
}

func TestSaveDraft_KeepsStatus(t *testing.T) {
	mem := datastore.NewMemory()
	p := New(mem)
	ctx := context.Background()

	d := onboarding.NewData()
	d.ContactInfo.FirstName = "Eva"
	draft := p.SaveDraft(ctx, "", d)
	require.True(t, draft.Success)

	contract, err := mem.GetContract(ctx, draft.ContractID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusDraft, contract.Status)

	submitted := p.Submit(ctx, draft.ContractID, validData())
	require.True(t, submitted.Success)
	again := p.SaveDraft(ctx, draft.ContractID, validData())
	require.True(t, again.Success)

	contract, err = mem.GetContract(ctx, draft.ContractID)
	require.NoError(t, err)
	assert.Equal(t, onboarding.StatusSubmitted, contract.Status)
}

func TestSectionError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := wrap(SectionConsents, cause)
	assert.ErrorIs(t, err, cause)

	var serr *SectionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Nepodarilo sa uložiť súhlasy.", serr.Message("sk"))
	assert.Equal(t, "Failed to save consents.", serr.Message("de"))
	assert.Nil(t, wrap(SectionConsents, nil))
}
