package article

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/feed"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/links"
)

// pageNotFoundTitle is the sentinel some CMSes put in the <title> of their
// soft-404 pages. A response carrying it never becomes an article.
const pageNotFoundTitle = "Page Not Found"

// Assembler builds validated article records from fetched responses. A
// response failing any validity check is rejected, which is not an error.
type Assembler struct {
	extractor *Extractor
	ids       feed.IDGenerator
	clock     feed.Clock
	logger    *zap.Logger
}

// NewAssembler constructs an Assembler.
func NewAssembler(extractor *Extractor, ids feed.IDGenerator, clock feed.Clock, logger *zap.Logger) *Assembler {
	return &Assembler{
		extractor: extractor,
		ids:       ids,
		clock:     clock,
		logger:    logger,
	}
}

// Assemble validates the response and builds an article record from it. The
// second return value reports acceptance; a rejected response returns false
// with no error. Errors are reserved for internal failures such as ID
// generation.
func (a *Assembler) Assemble(resp feed.Response) (feed.Article, bool, error) {
	if !strings.HasPrefix(resp.ContentType(), "text/html") {
		a.reject(resp, "content type is not HTML")
		return feed.Article{}, false, nil
	}

	ex, err := a.extractor.Extract(resp.FinalURL, resp.Body)
	if err != nil {
		a.reject(resp, err.Error())
		return feed.Article{}, false, nil
	}

	if ex.Title == "" || ex.Title == pageNotFoundTitle {
		a.reject(resp, "missing or not-found title")
		return feed.Article{}, false, nil
	}
	if len(ex.Authors) == 0 {
		a.reject(resp, "no authors")
		return feed.Article{}, false, nil
	}

	// Prefer the more specific timestamp from page metadata when both the
	// metadata and the content heuristics produced one.
	publishedAt := ex.PublishDate
	if !ex.MetaPublishDate.IsZero() {
		publishedAt = ex.MetaPublishDate
	}
	if publishedAt.IsZero() {
		a.reject(resp, "no publish timestamp")
		return feed.Article{}, false, nil
	}

	if ex.Text == "" {
		a.reject(resp, "empty body text")
		return feed.Article{}, false, nil
	}

	baseURL, err := url.Parse(resp.FinalURL)
	if err != nil {
		a.reject(resp, "unparseable final url")
		return feed.Article{}, false, nil
	}

	fetchID, err := a.ids.NewID()
	if err != nil {
		return feed.Article{}, false, fmt.Errorf("generate fetch id: %w", err)
	}

	return feed.Article{
		FetchID:          fetchID,
		URL:              resp.FinalURL,
		Title:            ex.Title,
		Authors:          ex.Authors,
		Tags:             feed.NewTags(ex.Tags, ex.MetaDescription, ex.MetaKeywords),
		Links:            links.OnPage(resp.Body, baseURL),
		PublishTimestamp: publishedAt,
		FetchedAt:        a.clock.Now(),
		Text:             ex.Text,
	}, true, nil
}

func (a *Assembler) reject(resp feed.Response, reason string) {
	a.logger.Debug("response rejected during assembly",
		zap.String("url", resp.FinalURL),
		zap.String("reason", reason),
	)
}
