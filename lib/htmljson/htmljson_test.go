package htmljson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

const testPage = `
<html>
<body>
	<div class="title">  Account overview  </div>
	<a id="profile" href="/profile.action">Profile</a>
	<ul id="meters">
		<li data-serial="100-200">
			<span class="kind">Cold water</span>
			<span class="value">381</span>
		</li>
		<li data-serial="300/400">
			<span class="kind">Electricity</span>
			<span class="value">10772</span>
		</li>
	</ul>
</body>
</html>`

func TestScalar(t *testing.T) {
	doc, err := Parse(testPage)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, "Account overview", Extract(doc, Scalar("div.title", "text")))
	require.Equal(t, "/profile.action", Extract(doc, Scalar("a#profile", "href")))

	// matched element, missing attribute
	require.Nil(t, Extract(doc, Scalar("div.title", "href")))
	// no match at all
	require.Nil(t, Extract(doc, Scalar("div.missing", "text")))
}

func TestList(t *testing.T) {
	doc, err := Parse(testPage)
	if err != nil {
		t.Fatal(err)
	}

	values := Extract(doc, List("#meters li span.value", "text"))
	require.Equal(t, []string{"381", "10772"}, values)

	empty := Extract(doc, List("#meters li span.missing", "text"))
	require.NotNil(t, empty)
	require.Equal(t, []string{}, empty)
}

func TestObjectList(t *testing.T) {
	doc, err := Parse(testPage)
	if err != nil {
		t.Fatal(err)
	}

	result := Extract(doc, ObjectList("#meters li",
		Field("serial", Scalar("", "data-serial")),
		Text("kind", "span.kind"),
		Text("value", "span.value"),
	))
	records, ok := result.([]Record)
	require.True(t, ok)
	require.Len(t, records, 2)

	// the empty-selector child is absent, not an error
	serial, found := records[0].Get("serial")
	require.True(t, found)
	require.Nil(t, serial)

	kind, _ := records[0].Get("kind")
	require.Equal(t, "Cold water", kind)
	value, _ := records[1].Get("value")
	require.Equal(t, "10772", value)
}

func TestRecordOrder(t *testing.T) {
	doc, err := Parse(testPage)
	if err != nil {
		t.Fatal(err)
	}

	result := Extract(doc, Object("#meters li",
		Text("value", "span.value"),
		Text("kind", "span.kind"),
	))
	record, ok := result.(Record)
	require.True(t, ok)

	// entries follow child declaration order, not document order
	require.Equal(t, "value", record[0].Key)
	require.Equal(t, "kind", record[1].Key)

	data, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, `{"value":"381","kind":"Cold water"}`, string(data))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Object("div", Text("a", "span")).Validate())
	require.Error(t, Scalar("", "text").Validate())
	require.Error(t, Object("div", Field("", Scalar("span", "text"))).Validate())
	require.Error(t, Object("div", Field("a", Scalar("", "text"))).Validate())
}

func TestSimple(t *testing.T) {
	doc, err := Parse(testPage)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, "Account overview", Simple(doc, "div.title", "text"))
	require.Equal(t, "", Simple(doc, "div.missing", "text"))
	require.Equal(t, []string{}, SimpleList(doc, "div.missing", "text"))
}
