package render

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSubstitute(t *testing.T) {
	data := map[string]interface{}{"name_zh": "张三", "grade": 3}
	assert.Equal(t, "姓名：张三", Substitute("姓名：{name_zh}", data))
	assert.Equal(t, "3 / {missing}", Substitute("{grade} / {missing}", data))
	assert.Equal(t, "no tags", Substitute("no tags", data))
	assert.Equal(t, "{ name_zh }", Substitute("{ name_zh }", data))
}

func TestFromBytesUnsupported(t *testing.T) {
	_, err := FromBytes("certificate.doc", []byte("x"))
	assert.ErrorIs(t, err, ErrUnsupportedTemplate)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.docx"))
	assert.Error(t, err)
}

func xlsxTemplate(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellStr("Sheet1", "A1", "Certificate for {name_en}"))
	require.NoError(t, f.SetCellStr("Sheet1", "B2", "{student_id}"))
	require.NoError(t, f.SetCellStr("Sheet1", "C3", "static"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestXlsxRenderer(t *testing.T) {
	r, err := FromBytes("tpl.xlsx", xlsxTemplate(t))
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", r.Ext())

	for _, id := range []string{"S001", "S002"} {
		var out bytes.Buffer
		require.NoError(t, r.Render(map[string]interface{}{"name_en": "Zhang, San", "student_id": id}, &out))

		f, err := excelize.OpenReader(&out)
		require.NoError(t, err)
		a1, _ := f.GetCellValue("Sheet1", "A1")
		b2, _ := f.GetCellValue("Sheet1", "B2")
		c3, _ := f.GetCellValue("Sheet1", "C3")
		assert.Equal(t, "Certificate for Zhang, San", a1)
		assert.Equal(t, id, b2, "each render starts from the template")
		assert.Equal(t, "static", c3)
		_ = f.Close()
	}
}

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Name: {name_zh}</w:t></w:r></w:p></w:body></w:document>`

func docxTemplate(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`,
		"_rels/.rels":         `<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`,
		"word/document.xml":   documentXML,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func readDocumentXML(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(b)
	}
	t.Fatal("word/document.xml not found")
	return ""
}

func TestDocxRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "certificate.docx")
	require.NoError(t, os.WriteFile(path, docxTemplate(t), 0o644))

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, ".docx", r.Ext())

	var out bytes.Buffer
	require.NoError(t, r.Render(map[string]interface{}{"name_zh": "张三"}, &out))

	body := readDocumentXML(t, out.Bytes())
	assert.Contains(t, body, "Name: 张三")
	assert.NotContains(t, body, "{name_zh}")
}

func TestDocxRendererRejectsGarbage(t *testing.T) {
	_, err := FromBytes("bad.docx", []byte("not a zip"))
	assert.Error(t, err)
}
