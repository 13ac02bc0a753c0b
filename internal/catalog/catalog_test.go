package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFind(t *testing.T) {
	services := []Service{{Name: "Veneers"}, {Name: "Teeth Whitening"}}

	svc, ok := Find(services, "teeth whitening")
	require.True(t, ok)
	assert.Equal(t, "Teeth Whitening", svc.Name)

	_, ok = Find(services, "")
	assert.False(t, ok)
	_, ok = Find(services, "Braces")
	assert.False(t, ok)
}

func TestDedupePrefersManualOverride(t *testing.T) {
	in := []Service{
		{Name: "Veneers", Price: "$500"},
		{Name: "Whitening", Price: "$200"},
		{Name: " veneers ", Price: "$900-$1,200", ManualOverride: true},
		{Name: "Whitening", Price: "$999"},
		{Name: "  "},
	}

	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "$900-$1,200", out[0].Price)
	assert.True(t, out[0].ManualOverride)
	assert.Equal(t, "$200", out[1].Price)
}

func TestStaticProvider(t *testing.T) {
	p := NewStaticProvider(map[string]Business{
		"biz-1": {
			Services: []Service{{Name: "Veneers"}},
			Contact:  ContactDetails{Phone: "555-0100"},
			FAQs:     []FAQ{{Question: "Do you take insurance?", Answer: "Yes."}},
		},
	})
	ctx := context.Background()

	services, err := p.Services(ctx, "biz-1")
	require.NoError(t, err)
	assert.Len(t, services, 1)

	details, err := p.ContactDetails(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, "555-0100", details.Phone)
	assert.False(t, details.IsZero())

	faqs, err := p.FAQs(ctx, "biz-1")
	require.NoError(t, err)
	assert.Len(t, faqs, 1)

	services, err = p.Services(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, services)

	_, err = p.Services(ctx, " ")
	assert.ErrorIs(t, err, ErrBusinessRequired)
}

type failingFAQProvider struct {
	*StaticProvider
}

func (failingFAQProvider) FAQs(context.Context, string) ([]FAQ, error) {
	return nil, errors.New("faq table missing")
}

func TestLoadSnapshotDegradesPerCollection(t *testing.T) {
	static := NewStaticProvider(map[string]Business{
		"biz": {
			Services: []Service{{Name: "Botox"}, {Name: "Botox", Price: "$12/unit", ManualOverride: true}},
			Contact:  ContactDetails{Phone: "555-000-1111"},
		},
	})

	snap, err := Load(context.Background(), failingFAQProvider{static}, "biz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "faqs")
	require.Len(t, snap.Services, 1)
	assert.Equal(t, "$12/unit", snap.Services[0].Price)
	assert.Equal(t, "555-000-1111", snap.Contact.Phone)
	assert.Equal(t, []string{"Botox"}, snap.ServiceNames())
}
