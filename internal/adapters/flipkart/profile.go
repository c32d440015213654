package flipkart

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Selectors are the CSS selectors of the review pages. Class names on the site change
// often, which is why they can be overridden from a YAML file.
type Selectors struct {
	Review       string `yaml:"review"`        // one review block
	Text         string `yaml:"text"`          // review body, inside a block
	Rating       string `yaml:"rating"`        // displayed rating, inside a block
	Meta         string `yaml:"meta"`          // user and time paragraphs, inside a block
	UserClass    string `yaml:"user_class"`    // class marking the user paragraph
	Votes        string `yaml:"votes"`         // like/dislike counters, inside a block
	DislikeClass string `yaml:"dislike_class"` // class marking the dislike counter
	Pagination   string `yaml:"pagination"`    // container holding "Page 1 of N"
	Related      string `yaml:"related"`       // links to similar products
}

type Profile struct {
	PageParam    string    `yaml:"page_param"`
	RelatedLimit int       `yaml:"related_limit"`
	Selectors    Selectors `yaml:"selectors"`
}

func DefaultProfile() Profile {
	return Profile{
		PageParam:    "page",
		RelatedLimit: 8,
		Selectors: Selectors{
			Review:       "div.EKFha-",
			Text:         "div.ZmyHeo",
			Rating:       "div.XQDdHH.Ga3i8K",
			Meta:         "p._2NsDsF",
			UserClass:    "AwS1CA",
			Votes:        "div._6kK6mk",
			DislikeClass: "aQymJL",
			Pagination:   "div._1G0WLw.mpIySA",
			Related:      "a[href*='/p/']",
		},
	}
}

// LoadProfile reads a YAML profile; fields left out keep their defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	return p, nil
}

// PageURL returns the URL of review page n of target.
func (p Profile) PageURL(target string, n int) string {
	u, err := url.Parse(target)
	if err != nil {
		return fmt.Sprintf("%s&%s=%d", target, p.PageParam, n)
	}
	q := u.Query()
	q.Set(p.PageParam, strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}
