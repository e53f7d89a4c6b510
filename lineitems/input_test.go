package lineitems

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemInput_Components(t *testing.T) {
	form := url.Values{}
	form.Set("name", " App Server ")
	form.Set("type", "Shared")
	form.Set("size", "Small")
	form.Set("quantity", "3")
	form.Set("profit_percentage", "40")

	in, err := Environments.ParseItemInput(form.Get)
	require.NoError(t, err)
	assert.Equal(t, Selection{"App Server", "Shared", "Small"}, in.Selection)
	assert.Equal(t, 3.0, in.Quantity)
	assert.Zero(t, in.Markup, "components carry no markup")
	assert.Nil(t, in.Rate)
}

func TestParseItemInput_Services(t *testing.T) {
	form := url.Values{}
	form.Set("service_name", "Integration")
	form.Set("number_of_mandays", "10")
	form.Set("profit_percentage", "20")
	form.Set("manday_rate", "650.5")

	in, err := ServiceSets.ParseItemInput(form.Get)
	require.NoError(t, err)
	assert.Equal(t, 10.0, in.Quantity)
	assert.Equal(t, 20.0, in.Markup)
	require.NotNil(t, in.Rate)
	assert.Equal(t, 650.5, *in.Rate)
}

func TestParseItemInput_NonNumeric(t *testing.T) {
	form := url.Values{}
	form.Set("service_name", "Integration")
	form.Set("number_of_mandays", "ten")
	form.Set("profit_percentage", "abc")

	_, err := ServiceSets.ParseItemInput(form.Get)
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a number", valErr.Fields["quantity"])
	assert.Equal(t, "must be a number", valErr.Fields["markup"])

	_, err = Environments.ParseItemInput(url.Values{}.Get)
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "quantity")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, ServiceSets.validate(&ItemInput{Quantity: 1}))

	err := ServiceSets.validate(&ItemInput{Quantity: 1, Markup: -5})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "markup")

	neg := -1.0
	err = ServiceSets.validate(&ItemInput{Quantity: 1, Rate: &neg})
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "rate")

	assert.NoError(t, ServiceSets.validatePatch(&ItemPatch{}))
	half := 0.5
	err = ServiceSets.validatePatch(&ItemPatch{Quantity: &half})
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields, "quantity")
}
