// Package job holds the identity values for submitted jobs and the schedulers that own them.
package job

import (
	"encoding/binary"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Description describes what a job runs and where. It is opaque to the identity model.
type Description struct {
	Executable          string
	Arguments           []string
	Queue               string
	ParallelEnvironment string
	NodeCount           int
	WorkingDirectory    string
	Stdout              string
	Stderr              string
	Interactive         bool
}

func (d *Description) clone() *Description {
	c := *d
	c.Arguments = append([]string(nil), d.Arguments...)
	return &c
}

func (d *Description) String() string {
	return fmt.Sprintf("Description [executable=%s, arguments=%v, queue=%s, parallelEnvironment=%s, nodeCount=%d, workingDirectory=%s, stdout=%s, stderr=%s, interactive=%t]",
		d.Executable, d.Arguments, d.Queue, d.ParallelEnvironment, d.NodeCount,
		d.WorkingDirectory, d.Stdout, d.Stderr, d.Interactive)
}

// Scheduler describes one scheduler connection. It does not own anything it references.
type Scheduler struct {
	adaptor     string
	id          string
	location    *url.URL
	queueNames  []string
	credential  any
	properties  map[string]string
	batch       bool
	interactive bool
	online      bool
}

// NewScheduler creates a Scheduler descriptor. Adaptor name and id are required.
func NewScheduler(adaptor, id string, location *url.URL, queueNames []string, credential any,
	properties map[string]string, batch, interactive, online bool) (*Scheduler, error) {
	if adaptor == "" {
		return nil, NewInvalidArgumentError("adaptor", "adaptor name may not be empty")
	}
	if id == "" {
		return nil, NewInvalidArgumentError("id", "scheduler id may not be empty")
	}

	props := make(map[string]string, len(properties))
	for k, v := range properties {
		props[k] = v
	}
	var loc *url.URL
	if location != nil {
		copied := *location
		loc = &copied
	}

	return &Scheduler{
		adaptor:     adaptor,
		id:          id,
		location:    loc,
		queueNames:  append([]string(nil), queueNames...),
		credential:  credential,
		properties:  props,
		batch:       batch,
		interactive: interactive,
		online:      online,
	}, nil
}

func (s *Scheduler) AdaptorName() string { return s.adaptor }
func (s *Scheduler) ID() string          { return s.id }
func (s *Scheduler) Credential() any     { return s.credential }
func (s *Scheduler) IsBatch() bool       { return s.batch }
func (s *Scheduler) IsInteractive() bool { return s.interactive }
func (s *Scheduler) IsOnline() bool      { return s.online }

// Location returns a copy of the connection URI (nil if unset).
func (s *Scheduler) Location() *url.URL {
	if s.location == nil {
		return nil
	}
	copied := *s.location
	return &copied
}

// QueueNames returns the queue names in the order the scheduler reported them.
func (s *Scheduler) QueueNames() []string {
	return append([]string(nil), s.queueNames...)
}

// Properties returns a copy of the scheduler properties.
func (s *Scheduler) Properties() map[string]string {
	props := make(map[string]string, len(s.properties))
	for k, v := range s.properties {
		props[k] = v
	}
	return props
}

func (s *Scheduler) String() string {
	loc := ""
	if s.location != nil {
		loc = s.location.String()
	}
	keys := make([]string, 0, len(s.properties))
	for k := range s.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	props := make([]string, 0, len(keys))
	for _, k := range keys {
		props = append(props, k+"="+s.properties[k])
	}
	return fmt.Sprintf("Scheduler [adaptorName=%s, uniqueID=%s, location=%s, queueNames=[%s], properties={%s}, isBatch=%t, isInteractive=%t, isOnline=%t]",
		s.adaptor, s.id, loc, strings.Join(s.queueNames, ", "), strings.Join(props, ", "),
		s.batch, s.interactive, s.online)
}

// Job is the identity of one submitted or attached job.
// Two jobs are the same job exactly when their UUIDs are equal.
type Job struct {
	description *Description
	scheduler   *Scheduler
	uuid        uuid.UUID
	identifier  string
	interactive bool
	online      bool
}

// NewJob creates a Job. Description, scheduler, uuid and identifier are required.
func NewJob(description *Description, scheduler *Scheduler, id uuid.UUID, identifier string,
	interactive, online bool) (*Job, error) {
	if description == nil {
		return nil, NewInvalidArgumentError("description", "job description may not be nil")
	}
	if scheduler == nil {
		return nil, NewInvalidArgumentError("scheduler", "scheduler may not be nil")
	}
	if id == uuid.Nil {
		return nil, NewInvalidArgumentError("uuid", "uuid may not be nil")
	}
	if identifier == "" {
		return nil, NewInvalidArgumentError("identifier", "identifier may not be empty")
	}
	return &Job{
		description: description.clone(),
		scheduler:   scheduler,
		uuid:        id,
		identifier:  identifier,
		interactive: interactive,
		online:      online,
	}, nil
}

// Description returns a copy of the job description.
func (j *Job) Description() *Description { return j.description.clone() }
func (j *Job) Scheduler() *Scheduler     { return j.scheduler }
func (j *Job) UUID() uuid.UUID           { return j.uuid }
func (j *Job) Identifier() string        { return j.identifier }
func (j *Job) IsInteractive() bool       { return j.interactive }
func (j *Job) IsOnline() bool            { return j.online }

// Equal reports whether other identifies the same job. Only the UUID is compared.
func (j *Job) Equal(other *Job) bool {
	if j == nil || other == nil {
		return j == other
	}
	return j.uuid == other.uuid
}

// Hash returns a hash derived from the UUID alone, consistent with Equal.
func (j *Job) Hash() uint64 {
	return binary.BigEndian.Uint64(j.uuid[0:8]) ^ binary.BigEndian.Uint64(j.uuid[8:16])
}

func (j *Job) String() string {
	return fmt.Sprintf("Job [identifier=%s, uuid=%s, scheduler=%s, description=%s, isInteractive=%t, isOnline=%t]",
		j.identifier, j.uuid, j.scheduler, j.description, j.interactive, j.online)
}
