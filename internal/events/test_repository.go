// Copyright 2020 The Vendorpay Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package events

import (
	"github.com/vendorpay-io/vendorpay/pkg/id"
)

// TestRepository is an in-memory Repository for tests.
type TestRepository struct {
	Err    error
	Events []*Event
}

func (r *TestRepository) GetEvent(eventID EventID, userID id.User) (*Event, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	for i := range r.Events {
		if r.Events[i].ID == eventID {
			return r.Events[i], nil
		}
	}
	return nil, nil
}

func (r *TestRepository) GetUserEvents(userID id.User) ([]*Event, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Events, nil
}

func (r *TestRepository) WriteEvent(userID id.User, event *Event) error {
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, event)
	return nil
}
