package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainText(t *testing.T) {
	e, err := Extract("notes.md", []byte("# Title\n\nSome prose."))
	require.NoError(t, err)
	assert.Equal(t, KindText, e.Kind)
	assert.Equal(t, "markdown", e.Language)
	assert.Contains(t, e.Text, "Some prose")
}

func TestExtractCode(t *testing.T) {
	e, err := Extract("tool.py", []byte("def main():\n    pass\n"))
	require.NoError(t, err)
	assert.Equal(t, KindCode, e.Kind)
	assert.Equal(t, "python", e.Language)
}

func TestExtractBinary(t *testing.T) {
	e, err := Extract("blob.bin", []byte{0x89, 'P', 'N', 'G', 0x00, 0x01})
	require.NoError(t, err)
	assert.Equal(t, KindBinary, e.Kind)
	assert.Empty(t, e.Text)
}

func TestExtractInvalidUTF8IsBinary(t *testing.T) {
	e, err := Extract("weird.dat", []byte{0xff, 0xfe, 0xfd, 'a'})
	require.NoError(t, err)
	assert.Equal(t, KindBinary, e.Kind)
}

func TestExtractLongUTF8NotBinary(t *testing.T) {
	data := []byte(strings.Repeat("é", sniffLen))
	e, err := Extract("long.txt", data)
	require.NoError(t, err)
	assert.Equal(t, KindText, e.Kind)
}

func TestExtractTabular(t *testing.T) {
	e, err := Extract("data.TSV", []byte("a\tb\n1\t2\n"))
	require.NoError(t, err)
	assert.Equal(t, KindTabular, e.Kind)
	assert.Equal(t, '\t', e.Delimiter)

	e, err = Extract("data.csv", []byte("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, ',', e.Delimiter)
}

func TestExtractFeed(t *testing.T) {
	rss := `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Model Weekly</title>
<description>News about models</description>
<item><title>New LLM released</title><description>&lt;p&gt;An &lt;b&gt;embedding&lt;/b&gt; model&lt;/p&gt;</description></item>
</channel></rss>`
	e, err := Extract("/tmp/news.xml", []byte(rss))
	require.NoError(t, err)
	assert.Equal(t, KindFeed, e.Kind)
	assert.Equal(t, "Model Weekly", e.Title)
	assert.Contains(t, e.Text, "New LLM released")
	assert.Contains(t, e.Text, "An embedding model")
	assert.NotContains(t, e.Text, "<b>")
}

func TestExtractPlainXMLIsNotFeed(t *testing.T) {
	e, err := Extract("pom.xml", []byte("<project><name>x</name></project>"))
	require.NoError(t, err)
	assert.NotEqual(t, KindFeed, e.Kind)
}

func TestExtractBrokenPDF(t *testing.T) {
	e, err := Extract("broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)
	assert.Equal(t, KindPDF, e.Kind)
}

func TestExtractHTMLKeepsKind(t *testing.T) {
	page := `<html><head><title>Dashboard</title></head><body><article>
<h1>Revenue report</h1>
<p>` + strings.Repeat("Quarterly revenue grew across every region this year. ", 20) + `</p>
</article></body></html>`
	e, err := Extract("report.html", []byte(page))
	require.NoError(t, err)
	assert.Equal(t, KindHTML, e.Kind)
	assert.Contains(t, e.Text, "Quarterly revenue")
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "a b c", stripTags("<p>a</p>\n<b>b</b>   c"))
}

func TestStripTagsHandlesMarkupInAttributesAndEntities(t *testing.T) {
	in := `<p title="a > b">Fish &amp; chips</p><p>second</p><script>var x = "<b>";</script><!-- <i>hidden</i> -->`
	assert.Equal(t, "Fish & chips second", stripTags(in))
}
