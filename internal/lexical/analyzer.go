package lexical

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

// Names for the custom tokenizer/filter/analyzer registered into bleve's
// global registry. Namespaced to this module so the registration never
// collides with another package that also registers into bleve/v2.
const (
	seekrTokenizerName = "seekr_code_tokenizer"
	seekrStopFilterName = "seekr_code_stop"
	seekrCodeAnalyzer   = "seekr_code_analyzer"
)

func init() {
	_ = registry.RegisterTokenizer(seekrTokenizerName, seekrTokenizerConstructor)
	_ = registry.RegisterTokenFilter(seekrStopFilterName, seekrStopFilterConstructor)
}

// newIndexMapping builds the bleve mapping: a code-aware tokenizer plus
// stop-word filter, used as the index's default analyzer.
func newIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	if err := indexMapping.AddCustomAnalyzer(seekrCodeAnalyzer, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": seekrTokenizerName,
		"token_filters": []string{
			lowercase.Name,
			seekrStopFilterName,
		},
	}); err != nil {
		return nil, err
	}

	indexMapping.DefaultAnalyzer = seekrCodeAnalyzer
	return indexMapping, nil
}

func seekrTokenizerConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.Tokenizer, error) {
	return &codeTokenizer{}, nil
}

// codeTokenizer implements analysis.Tokenizer over TokenizeCode.
type codeTokenizer struct{}

func (t *codeTokenizer) Tokenize(input []byte) analysis.TokenStream {
	text := string(input)
	tokens := TokenizeCode(text)

	result := make(analysis.TokenStream, 0, len(tokens))
	pos := 1
	offset := 0

	for _, token := range tokens {
		start := strings.Index(strings.ToLower(text[offset:]), strings.ToLower(token))
		if start == -1 {
			start = offset
		} else {
			start += offset
		}
		end := start + len(token)

		result = append(result, &analysis.Token{
			Term:     []byte(token),
			Start:    start,
			End:      end,
			Position: pos,
			Type:     analysis.AlphaNumeric,
		})
		pos++
		if end <= len(text) {
			offset = end
		}
	}

	return result
}

func seekrStopFilterConstructor(_ map[string]interface{}, _ *registry.Cache) (analysis.TokenFilter, error) {
	return &codeStopFilter{stopWords: BuildStopWordMap(DefaultStopWords)}, nil
}

type codeStopFilter struct {
	stopWords map[string]struct{}
}

func (f *codeStopFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if _, isStop := f.stopWords[strings.ToLower(string(token.Term))]; !isStop {
			result = append(result, token)
		}
	}
	return result
}
