package autofill

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merchant-onboarding/internal/onboarding"
)

func janContact() onboarding.ContactInfo {
	return onboarding.ContactInfo{
		FirstName: "Ján",
		LastName:  "Novák",
		Email:     "jan@example.sk",
		Phone:     "900123456",
	}
}

func TestNavigateFromContactStep_CreatesAuthorizedPerson(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(janContact())
	steps := onboarding.DefaultSteps()

	notices, err := NewNavigator().Navigate(d, steps, 0, 1)
	require.NoError(t, err)

	require.Len(t, d.AuthorizedPersons, 1)
	p := d.AuthorizedPersons[0]
	assert.Equal(t, "Ján", p.FirstName)
	assert.Equal(t, "jan@example.sk", p.Email)
	assert.True(t, p.CreatedFromContact)
	assert.NotEmpty(t, p.ID)
	require.Len(t, notices, 1)
	assert.Equal(t, onboarding.NoticeDefault, notices[0].Variant)
}

func TestNavigateFromContactStep_IncompleteContactDoesNothing(t *testing.T) {
	d := onboarding.NewData()
	c := janContact()
	c.Phone = ""
	d.SetContactInfo(c)

	notices, err := NewNavigator().Navigate(d, onboarding.DefaultSteps(), 0, 1)
	require.NoError(t, err)

	assert.Empty(t, d.AuthorizedPersons)
	assert.Empty(t, notices)
}

func TestNavigateBackwardFromContactStep_DoesNotFire(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(janContact())
	steps := onboarding.DefaultSteps()
	steps[0], steps[1] = steps[1], steps[0]

	_, err := NewNavigator().Navigate(d, steps, 1, 0)
	require.NoError(t, err)
	assert.Empty(t, d.AuthorizedPersons)
}

func TestNavigate_RepeatedTriggerIsIdempotent(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(janContact())
	steps := onboarding.DefaultSteps()
	nav := NewNavigator()

	_, err := nav.Navigate(d, steps, 0, 1)
	require.NoError(t, err)
	notices, err := nav.Navigate(d, steps, 4, 5)
	require.NoError(t, err)

	assert.Len(t, d.AuthorizedPersons, 1)
	assert.Empty(t, notices)
}

func TestNavigate_OutOfRange(t *testing.T) {
	_, err := NewNavigator().Navigate(onboarding.NewData(), onboarding.DefaultSteps(), 0, 8)
	assert.Error(t, err)
	_, err = NewNavigator().Navigate(onboarding.NewData(), onboarding.DefaultSteps(), -1, 0)
	assert.Error(t, err)
}

func TestAuthorizedPersonFromContact_Idempotent(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(janContact())

	first := AuthorizedPersonFromContact(d.ContactInfo, d.AuthorizedPersons)
	require.Equal(t, ActionCreate, first.Action)
	d.AddAuthorizedPerson(first.Candidate)

	second := AuthorizedPersonFromContact(d.ContactInfo, d.AuthorizedPersons)
	assert.Equal(t, ActionNone, second.Action)
}

func TestAuthorizedPersonFromContact_MatchIsCaseAndSpaceInsensitive(t *testing.T) {
	persons := []onboarding.AuthorizedPerson{{ID: "p1", FirstName: "ján", LastName: "NOVÁK", Email: "Jan@Example.sk"}}
	c := janContact()
	c.FirstName = " Ján "

	dec := AuthorizedPersonFromContact(c, persons)

	require.Equal(t, ActionUpdate, dec.Action)
	assert.Equal(t, 0, dec.Index)
	assert.Equal(t, "p1", dec.Candidate.ID)
	assert.Equal(t, "Ján", dec.Candidate.FirstName)
	assert.Equal(t, "900123456", dec.Candidate.Phone)
}

func TestAuthorizedPersonFromContact_NeverClobbers(t *testing.T) {
	persons := []onboarding.AuthorizedPerson{{
		ID:          "p1",
		FirstName:   "Ján",
		LastName:    "Novák",
		Email:       "jan@example.sk",
		Phone:       "+421911000111",
		BirthNumber: "800101/1234",
	}}
	c := janContact()
	c.Phone = ""

	dec := AuthorizedPersonFromContact(c, persons)

	assert.Equal(t, ActionNone, dec.Action)

	c.Phone = "900123456"
	dec = AuthorizedPersonFromContact(c, persons)
	require.Equal(t, ActionUpdate, dec.Action)
	assert.Equal(t, "800101/1234", dec.Candidate.BirthNumber)
	assert.Equal(t, "900123456", dec.Candidate.Phone)
	assert.Equal(t, "+421911000111", persons[0].Phone)
}

func TestAuthorizedPersonFromContact_MissingMinimum(t *testing.T) {
	c := janContact()
	c.Email = "  "

	dec := AuthorizedPersonFromContact(c, nil)

	assert.Equal(t, ActionNone, dec.Action)
}

func TestPlaceholderEmail_RequiresPhoneMatch(t *testing.T) {
	persons := []onboarding.AuthorizedPerson{{ID: "p1", FirstName: "Ján", LastName: "Novák", Email: "test@test.sk", Phone: "911111111"}}
	c := janContact()
	c.Email = "test@test.sk"

	dec := AuthorizedPersonFromContact(c, persons)
	assert.Equal(t, ActionCreate, dec.Action)

	c.Phone = "911 111 111"
	dec = AuthorizedPersonFromContact(c, persons)
	assert.Equal(t, ActionUpdate, dec.Action)
}

func TestPlaceholderEmailWithoutPhone_NeverDuplicates(t *testing.T) {
	d := onboarding.NewData()
	c := janContact()
	c.Email = "test@test.sk"
	c.Phone = ""
	d.SetContactInfo(c)
	steps := onboarding.DefaultSteps()
	nav := NewNavigator()

	for i := 0; i < 3; i++ {
		_, err := nav.Navigate(d, steps, 0, 5)
		require.NoError(t, err)
	}

	assert.Len(t, d.AuthorizedPersons, 0)
	assert.Len(t, d.ActualOwners, 0)
	assert.Equal(t, ActionNone, AuthorizedPersonFromContact(d.ContactInfo, d.AuthorizedPersons).Action)
	assert.Equal(t, ActionNone, ActualOwnerFromContact(d.ContactInfo, d.ActualOwners).Action)
}

func TestFullPhone(t *testing.T) {
	assert.Equal(t, "+421900123456", FullPhone("+421", "900123456"))
	assert.Equal(t, "+420777", FullPhone("+421", "+420777"))
	assert.Equal(t, "900", FullPhone("", "900"))
	assert.Equal(t, "", FullPhone("+421", ""))
}

func TestAuthorizedPersonFromCompanyContact(t *testing.T) {
	d := onboarding.NewData()
	d.SetCompanyInfo(onboarding.CompanyInfo{
		CompanyName: "Novák s.r.o.",
		ContactPerson: onboarding.ContactPerson{
			FirstName:   "Eva",
			LastName:    "Malá",
			Email:       "eva@novak.sk",
			Phone:       "900555666",
			PhonePrefix: "+421",
		},
	})

	notices := ApplyAuthorizedPersonFromCompanyContact(d)

	require.Len(t, d.AuthorizedPersons, 1)
	assert.Equal(t, "+421900555666", d.AuthorizedPersons[0].Phone)
	assert.Len(t, notices, 1)
	assert.Empty(t, ApplyAuthorizedPersonFromCompanyContact(d))
}

func TestActualOwnerFromContact(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(janContact())

	require.Len(t, ApplyActualOwnerFromContact(d), 1)
	require.Len(t, d.ActualOwners, 1)
	assert.Equal(t, "Novák", d.ActualOwners[0].LastName)

	assert.Empty(t, ApplyActualOwnerFromContact(d))
	assert.Len(t, d.ActualOwners, 1)
}

func TestLocationContactFromCompany(t *testing.T) {
	cp := onboarding.ContactPerson{FirstName: "Eva", LastName: "Malá", Email: "eva@novak.sk", Phone: "900555666"}

	empty := onboarding.BusinessLocation{ID: "l1", Name: "Centrum"}
	dec := LocationContactFromCompany(cp, empty)
	require.Equal(t, ActionCreate, dec.Action)
	assert.Equal(t, "Eva", dec.Candidate.ContactPerson.FirstName)

	other := onboarding.BusinessLocation{ID: "l2", ContactPerson: onboarding.ContactPerson{FirstName: "Peter", LastName: "Veľký", Email: "p@x.sk"}}
	assert.Equal(t, ActionNone, LocationContactFromCompany(cp, other).Action)

	gap := onboarding.BusinessLocation{ID: "l3", ContactPerson: onboarding.ContactPerson{FirstName: "Eva", LastName: "Malá", Email: "eva@novak.sk"}}
	dec = LocationContactFromCompany(cp, gap)
	require.Equal(t, ActionUpdate, dec.Action)
	assert.Equal(t, "900555666", dec.Candidate.ContactPerson.Phone)
}

func TestEnterLocationsStep_FillsEmptyContacts(t *testing.T) {
	d := onboarding.NewData()
	d.SetCompanyInfo(onboarding.CompanyInfo{ContactPerson: onboarding.ContactPerson{FirstName: "Eva", LastName: "Malá", Email: "eva@novak.sk"}})
	d.AddLocation(onboarding.BusinessLocation{Name: "Centrum"})
	d.AddLocation(onboarding.BusinessLocation{Name: "Sever", ContactPerson: onboarding.ContactPerson{FirstName: "Peter"}})
	nav := NewNavigator()

	notices, err := nav.Navigate(d, onboarding.DefaultSteps(), 1, 2)
	require.NoError(t, err)

	assert.Equal(t, "Eva", d.BusinessLocations[0].ContactPerson.FirstName)
	assert.Equal(t, "Peter", d.BusinessLocations[1].ContactPerson.FirstName)
	assert.Len(t, notices, 1)

	notices, err = nav.Navigate(d, onboarding.DefaultSteps(), 1, 2)
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestEnterConsentsStep_SelectsOnlySigningPerson(t *testing.T) {
	d := onboarding.NewData()
	d.SetContactInfo(janContact())

	_, err := NewNavigator().Navigate(d, onboarding.DefaultSteps(), 6, 7)
	require.NoError(t, err)

	require.Len(t, d.AuthorizedPersons, 1)
	assert.Equal(t, d.AuthorizedPersons[0].ID, d.Consents.SigningPersonID)
}

func TestEmitter_CustomHandlersRunInOrder(t *testing.T) {
	e := NewEmitter()
	var calls []string
	e.On(EventEnter, func(Transition) []onboarding.Notice { calls = append(calls, "a"); return nil })
	e.On(EventEnter, func(Transition) []onboarding.Notice {
		calls = append(calls, "b")
		return []onboarding.Notice{onboarding.InfoNotice("t", "d")}
	})
	e.On(EventLeave, func(Transition) []onboarding.Notice { calls = append(calls, "leave"); return nil })

	notices, err := NewNavigatorWithEmitter(e).Navigate(onboarding.NewData(), onboarding.DefaultSteps(), 0, 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"leave", "a", "b"}, calls)
	assert.Len(t, notices, 1)
}
