// Package export assembles the report table and hands the encoded bytes to a
// sink.
package export

import (
	"strconv"
	"strings"

	"github.com/iago/geo-visibility-back/internal/domain"
)

// Column is one fixed report column: Key selects the AnswerRecord field and
// Title is written to the header row.
type Column struct {
	Key   string
	Title string
}

// DefaultBaseColumns is the declared order of the fixed report columns.
var DefaultBaseColumns = []Column{
	{Key: "input", Title: "INPUT"},
	{Key: "no", Title: "NO."},
	{Key: "query", Title: "QUERY"},
	{Key: "aio", Title: "AIO 回覆內容"},
	{Key: "aioOfficialWebsiteExist", Title: "AIO 有無官網"},
	{Key: "aioReference", Title: "AIO 引用的資料"},
	{Key: "aioBrandCompare", Title: "AIO 品牌比較"},
	{Key: "aioBrandExist", Title: "AIO 有無品牌"},
	{Key: "aioBrandRelated", Title: "AIO 品牌相關"},
	{Key: "chatgpt", Title: "ChatGPT 回覆內容"},
	{Key: "chatgptOfficialWebsiteExist", Title: "ChatGPT 有無官網"},
	{Key: "chatgptReference", Title: "ChatGPT 引用的資料"},
	{Key: "chatgptBrandCompare", Title: "ChatGPT 品牌比較"},
	{Key: "chatgptBrandExist", Title: "ChatGPT 有無品牌"},
	{Key: "chatgptBrandRelated", Title: "ChatGPT 品牌相關"},
	{Key: "contentAnalysis", Title: "內容分析"},
	{Key: "optimizeDirection", Title: "優化方向"},
	{Key: "answerEngine", Title: "ANSWER ENGINE"},
}

// Schema fixes the column order of one report: base columns, then the
// combined own-brand column, then one column per competitor in input order.
type Schema struct {
	Base        []Column
	OwnBrands   []string
	Competitors []string
}

func NewSchema(ownBrands, competitors []string) Schema {
	return Schema{
		Base:        DefaultBaseColumns,
		OwnBrands:   ownBrands,
		Competitors: competitors,
	}
}

// OwnBrandsColumn is the label of the combined own-brand column.
func (s Schema) OwnBrandsColumn() string {
	return strings.Join(s.OwnBrands, "+")
}

func (s Schema) Header() []string {
	header := make([]string, 0, len(s.Base)+1+len(s.Competitors))
	for _, col := range s.Base {
		header = append(header, col.Title)
	}
	header = append(header, s.OwnBrandsColumn())
	return append(header, s.Competitors...)
}

// Row returns the cell values of record in header order. Unknown keys and
// brands missing from the presence matrix render as "".
func (s Schema) Row(record domain.AnswerRecord) []string {
	row := make([]string, 0, len(s.Base)+1+len(s.Competitors))
	for _, col := range s.Base {
		row = append(row, baseValue(record, col.Key))
	}
	row = append(row, brandValue(record, s.OwnBrandsColumn()))
	for _, competitor := range s.Competitors {
		row = append(row, brandValue(record, competitor))
	}
	return row
}

// Encode renders the header plus one line per record. Lines are separated by
// "\n" and every cell is quoted.
func Encode(schema Schema, records []domain.AnswerRecord) []byte {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, encodeLine(schema.Header()))
	for _, record := range records {
		lines = append(lines, encodeLine(schema.Row(record)))
	}
	return []byte(strings.Join(lines, "\n"))
}

// encodeLine quotes unconditionally; encoding/csv only quotes when a cell
// needs it.
func encodeLine(cells []string) string {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

func brandValue(record domain.AnswerRecord, label string) string {
	value, ok := record.Brands[label]
	if !ok {
		return ""
	}
	return strconv.Itoa(value)
}

func baseValue(r domain.AnswerRecord, key string) string {
	switch key {
	case "input":
		return r.Input
	case "no":
		if r.No == 0 {
			return ""
		}
		return strconv.Itoa(r.No)
	case "query":
		return r.Query
	case "aio":
		return r.AIO
	case "aioOfficialWebsiteExist":
		return r.AIOOfficialSite
	case "aioReference":
		return r.AIOReference
	case "aioBrandCompare":
		return r.AIOBrandCompare
	case "aioBrandExist":
		return r.AIOBrandExist
	case "aioBrandRelated":
		return r.AIOBrandRelated
	case "chatgpt":
		return r.ChatGPT
	case "chatgptOfficialWebsiteExist":
		return r.ChatGPTOfficial
	case "chatgptReference":
		return r.ChatGPTReference
	case "chatgptBrandCompare":
		return r.ChatGPTCompare
	case "chatgptBrandExist":
		return r.ChatGPTBrandExist
	case "chatgptBrandRelated":
		return r.ChatGPTRelated
	case "contentAnalysis":
		return r.ContentAnalysis
	case "optimizeDirection":
		return r.OptimizeDirection
	case "answerEngine":
		return r.AnswerEngine
	default:
		return ""
	}
}
