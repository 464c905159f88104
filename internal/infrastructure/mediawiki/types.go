package mediawiki

import "fmt"

// APIError is the error object the wiki returns instead of a result
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mediawiki: %s: %s", e.Code, e.Info)
}

// MediaData is the wiki side of a media file
type MediaData struct {
	PageID     int64
	Title      string
	URL        string // thumbnail URL when a width was requested
	Width      int
	Height     int
	Categories []string // non-hidden categories only
	Usages     []Usage
}

// Usage is a page on some wiki that embeds the file
type Usage struct {
	Title string `json:"title"`
	Wiki  string `json:"wiki"`
	URL   string `json:"url"`
}

type envelope struct {
	Error *APIError `json:"error,omitempty"`
}

type page struct {
	PageID    int64  `json:"pageid"`
	Title     string `json:"title"`
	Missing   bool   `json:"missing"`
	Invalid   bool   `json:"invalid"`
	Revisions []struct {
		Slots struct {
			Main struct {
				Content string `json:"content"`
			} `json:"main"`
		} `json:"slots"`
	} `json:"revisions"`
	ImageInfo []struct {
		URL            string `json:"url"`
		ThumbURL       string `json:"thumburl"`
		CanonicalTitle string `json:"canonicaltitle"`
		Width          int    `json:"width"`
		Height         int    `json:"height"`
	} `json:"imageinfo"`
	Categories []struct {
		Title  string `json:"title"`
		Hidden bool   `json:"hidden"`
	} `json:"categories"`
	GlobalUsage []Usage `json:"globalusage"`
}

type queryResponse struct {
	envelope
	Query struct {
		Pages  []page `json:"pages"`
		Tokens struct {
			CSRFToken string `json:"csrftoken"`
		} `json:"tokens"`
	} `json:"query"`
}

type editResponse struct {
	envelope
	Edit struct {
		Result string `json:"result"`
	} `json:"edit"`
}
