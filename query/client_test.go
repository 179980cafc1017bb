package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labfleet/labfleet/config"
	"github.com/labfleet/labfleet/fleet"
)

func registryConf(address string) config.Registry {
	return config.Registry{
		Address:  address,
		Timeout:  config.Duration(time.Second * 5),
		MaxTries: 1,
	}
}

func TestQueryLabs(t *testing.T) {
	var gotFilter DeviceFilter
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/labs:query" {
			t.Error("unexpected path", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotFilter); err != nil {
			t.Error("decoding filter:", err)
		}
		json.NewEncoder(w).Encode([]*fleet.Lab{
			{Hostname: "l1", Devices: []*fleet.Device{{Serial: "s1"}}},
		})
	}))
	defer srv.Close()

	c, err := NewClient(registryConf(srv.URL))
	if err != nil {
		t.Fatal(err)
	}

	labs, err := c.QueryLabs(context.Background(), &DeviceFilter{Driver: "NoOpDriver"})
	if err != nil {
		t.Fatal(err)
	}
	if len(labs) != 1 || labs[0].Hostname != "l1" || len(labs[0].Devices) != 1 {
		t.Errorf("unexpected labs: %+v", labs)
	}
	if gotFilter.Driver != "NoOpDriver" {
		t.Error("filter was not sent", gotFilter)
	}
}

func TestQueryLabsRetries(t *testing.T) {
	tries := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tries++
		if tries < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]*fleet.Lab{})
	}))
	defer srv.Close()

	conf := registryConf(srv.URL)
	conf.MaxTries = 5
	c, err := NewClient(conf)
	if err != nil {
		t.Fatal(err)
	}
	c.retrier.InitialInterval = time.Millisecond

	_, err = c.QueryLabs(context.Background(), &DeviceFilter{})
	if err != nil {
		t.Fatal("expected the retried call to succeed:", err)
	}
	if tries != 3 {
		t.Error("unexpected number of tries", tries)
	}
}

func TestQueryLabsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(registryConf(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	c.retrier.InitialInterval = time.Millisecond

	if _, err := c.QueryLabs(context.Background(), &DeviceFilter{}); err == nil {
		t.Error("expected an error")
	}
}

func TestGetLab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/labs/l1" {
			t.Error("unexpected path", r.URL.Path)
		}
		json.NewEncoder(w).Encode(&fleet.Lab{Hostname: "l1"})
	}))
	defer srv.Close()

	c, err := NewClient(registryConf(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	lab, err := c.GetLab(context.Background(), "l1")
	if err != nil {
		t.Fatal(err)
	}
	if lab.Hostname != "l1" {
		t.Errorf("unexpected lab: %+v", lab)
	}
}

func TestNewClientAddress(t *testing.T) {
	if _, err := NewClient(registryConf("ftp://bad")); err == nil {
		t.Error("expected an invalid protocol error")
	}
	c, err := NewClient(registryConf("registry.example.com:8000"))
	if err != nil {
		t.Fatal(err)
	}
	if c.address != "http://registry.example.com:8000" {
		t.Error("unexpected address", c.address)
	}
}
