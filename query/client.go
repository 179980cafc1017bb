package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/util"
	"golang.org/x/net/context"
)

// NewClient returns a new HTTP client for the device registry's query
// endpoints. "conf.Address" is the address of the registry server.
func NewClient(conf config.Registry) (*Client, error) {
	user := os.Getenv("LABFLEET_REGISTRY_USER")
	password := os.Getenv("LABFLEET_REGISTRY_PASSWORD")

	re := regexp.MustCompile("^(.+://)?(.[^/]+)(.+)?$")
	endpoint := re.ReplaceAllString(conf.Address, "$1$2")

	reScheme := regexp.MustCompile("^.+://")
	if reScheme.MatchString(endpoint) {
		if !strings.HasPrefix(endpoint, "http") {
			return nil, fmt.Errorf("invalid protocol: '%s'; expected: 'http://' or 'https://'", reScheme.FindString(endpoint))
		}
	} else {
		endpoint = "http://" + endpoint
	}

	timeout := time.Duration(conf.Timeout)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retrier := util.NewRetrier()
	retrier.MaxTries = conf.MaxTries
	retrier.MaxElapsedTime = 0

	return &Client{
		address: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
		retrier:  retrier,
		User:     user,
		Password: password,
	}, nil
}

// Client represents the HTTP device registry client.
type Client struct {
	address  string
	client   *http.Client
	retrier  *util.Retrier
	User     string
	Password string
}

// QueryLabs POSTs a DeviceFilter to /v1/labs:query and returns the
// matching labs with their device snapshots.
func (c *Client) QueryLabs(ctx context.Context, filter *DeviceFilter) ([]*fleet.Lab, error) {
	b, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("error marshaling device filter: %v", err)
	}

	var labs []*fleet.Lab
	err = c.retrier.Retry(ctx, func() error {
		u := c.address + "/v1/labs:query"
		hreq, _ := http.NewRequest("POST", u, bytes.NewReader(b))
		hreq = hreq.WithContext(ctx)
		hreq.Header.Add("Content-Type", "application/json")
		hreq.SetBasicAuth(c.User, c.Password)
		body, err := util.CheckHTTPResponse(c.client.Do(hreq))
		if err != nil {
			return err
		}
		labs = nil
		return json.Unmarshal(body, &labs)
	})
	if err != nil {
		return nil, err
	}
	return labs, nil
}

// GetLab returns the result of GET /v1/labs/{hostname}
func (c *Client) GetLab(ctx context.Context, hostname string) (*fleet.Lab, error) {
	u := c.address + "/v1/labs/" + hostname
	hreq, _ := http.NewRequest("GET", u, nil)
	hreq = hreq.WithContext(ctx)
	hreq.SetBasicAuth(c.User, c.Password)
	body, err := util.CheckHTTPResponse(c.client.Do(hreq))
	if err != nil {
		return nil, err
	}
	lab := &fleet.Lab{}
	err = json.Unmarshal(body, lab)
	if err != nil {
		return nil, err
	}
	return lab, nil
}
