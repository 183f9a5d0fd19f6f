package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contactsFixture() (*Contact, *Contact, *Contact, Contacts) {
	a := &Contact{ID: 1, Name: "Ada"}
	b := &Contact{ID: 2, Name: "Bob"}
	c := &Contact{ID: 3, Name: "Cyd"}
	return a, b, c, NewContacts(a, b, c)
}

func TestSequenceAddAppendsWithoutTouchingReceiver(t *testing.T) {
	a, b, c, s := contactsFixture()
	d := &Contact{ID: 4, Name: "Dee"}

	added := s.Add(d)

	assert.Equal(t, s.Len()+1, added.Len())
	assert.Equal(t, []*Contact{a, b, c, d}, added.Items())
	assert.Equal(t, []*Contact{a, b, c}, s.Items())
}

func TestSequenceAddMultiplePreservesOrder(t *testing.T) {
	a, b, c, _ := contactsFixture()
	var empty Contacts

	got := empty.AddMultiple(a, b).AddMultiple(c)

	assert.Equal(t, []*Contact{a, b, c}, got.Items())
	assert.Zero(t, empty.Len())
}

func TestSequenceReplace(t *testing.T) {
	a, b, c, s := contactsFixture()
	d := &Contact{ID: 4, Name: "Dee"}

	got, err := s.Replace(1, d)
	require.NoError(t, err)

	assert.Equal(t, []*Contact{a, d, c}, got.Items())
	assert.Equal(t, []*Contact{a, b, c}, s.Items())
}

func TestSequenceReplaceOutOfRange(t *testing.T) {
	_, _, _, s := contactsFixture()

	for _, i := range []int{-1, 3, 10} {
		_, err := s.Replace(i, &Contact{})
		require.ErrorIs(t, err, ErrIndexOutOfRange)
	}
}

func TestSequenceRemoveDropsEveryIdenticalEntry(t *testing.T) {
	a, b, c, _ := contactsFixture()
	s := NewContacts(a, b, c, b)

	got := s.Remove(b)

	assert.Equal(t, []*Contact{a, c}, got.Items())
	assert.Equal(t, 4, s.Len())
}

func TestSequenceRemoveUsesIdentityNotEquality(t *testing.T) {
	a, b, c, s := contactsFixture()
	lookalike := &Contact{ID: 2, Name: "Bob"}

	got := s.Remove(lookalike)

	assert.Equal(t, []*Contact{a, b, c}, got.Items())
}

func TestSequenceRemoveAt(t *testing.T) {
	a, b, c, _ := contactsFixture()
	s := NewContacts(a, b, c, b)

	got, err := s.RemoveAt(1)
	require.NoError(t, err)

	assert.Equal(t, []*Contact{a, c, b}, got.Items())

	_, err = s.RemoveAt(4)
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSequenceFromIndex(t *testing.T) {
	a, b, c, s := contactsFixture()

	got, err := s.FromIndex(2, ContactPatch{Role: Ptr("owner")})
	require.NoError(t, err)

	patched, ok := got.At(2)
	require.True(t, ok)
	assert.Equal(t, "owner", patched.Role)
	assert.Equal(t, "Cyd", patched.Name)
	assert.NotSame(t, c, patched)
	assert.Empty(t, c.Role)
	assert.Equal(t, []*Contact{a, b, c}, s.Items())

	_, err = s.FromIndex(3, ContactPatch{})
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSequenceFromElement(t *testing.T) {
	a, b, c, s := contactsFixture()

	got, err := s.FromElement(b, ContactPatch{Name: Ptr("Bea")})
	require.NoError(t, err)

	items := got.Items()
	assert.Same(t, a, items[0])
	assert.Equal(t, "Bea", items[1].Name)
	assert.Same(t, c, items[2])

	_, err = s.FromElement(&Contact{ID: 2, Name: "Bob"}, ContactPatch{})
	require.ErrorIs(t, err, ErrElementNotFound)
}

func TestSequenceFromWherePatchesOnlyFirstMatch(t *testing.T) {
	a := &Contact{ID: 1, Name: "Ada", Role: "sales"}
	b := &Contact{ID: 2, Name: "Bob", Role: "sales"}
	s := NewContacts(a, b)

	got, err := s.FromWhere(func(c *Contact) bool { return c.Role == "sales" }, ContactPatch{Primary: Ptr(true)})
	require.NoError(t, err)

	items := got.Items()
	assert.True(t, items[0].Primary)
	assert.Same(t, b, items[1])
	assert.False(t, b.Primary)
}

func TestSequenceFromWhereWithoutMatchFails(t *testing.T) {
	_, _, _, s := contactsFixture()

	got, err := s.FromWhere(func(*Contact) bool { return false }, ContactPatch{Name: Ptr("x")})
	require.ErrorIs(t, err, ErrNoMatch)
	assert.Equal(t, s.Items(), got.Items())
}

func TestSequenceItemsReturnsCopy(t *testing.T) {
	a, _, _, s := contactsFixture()

	items := s.Items()
	items[0] = &Contact{ID: 99}

	first, ok := s.At(0)
	require.True(t, ok)
	assert.Same(t, a, first)
}

func TestSequenceJSON(t *testing.T) {
	var empty Contacts
	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	_, _, _, s := contactsFixture()
	data, err = json.Marshal(s)
	require.NoError(t, err)

	var decoded Contacts
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, 3, decoded.Len())
	second, _ := decoded.At(1)
	assert.Equal(t, "Bob", second.Name)
}
