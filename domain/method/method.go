// Package method provides the request shapes of the method endpoint and
// the pure rules applied to them.
// This package has NO dependencies on I/O or external packages.
package method

import (
	"strconv"
	"strings"
	"time"

	"github.com/artpar/scoreapi/core/schema"
	"github.com/artpar/scoreapi/domain/auth"
	"github.com/artpar/scoreapi/domain/scoring"
)

// Method names accepted by the dispatcher.
const (
	OnlineScore      = "online_score"
	ClientsInterests = "clients_interests"
)

// Fixed result returned to the admin caller by online_score.
const AdminScore = 42

// Schemas are built once and shared by all requests.
var (
	EnvelopeSchema = schema.New("method_request",
		schema.String("account").AllowEmpty(),
		schema.String("login").Require().AllowEmpty(),
		schema.String("token").Require().AllowEmpty(),
		schema.Dict("arguments").Require().AllowEmpty(),
		schema.String("method").Require(),
	)

	OnlineScoreSchema = schema.New("online_score",
		schema.String("first_name").AllowEmpty(),
		schema.String("last_name").AllowEmpty(),
		schema.Email("email").AllowEmpty(),
		schema.Phone("phone").AllowEmpty(),
		schema.BirthDate("birthday").AllowEmpty(),
		schema.Gender("gender").AllowEmpty(),
	)

	ClientsInterestsSchema = schema.New("clients_interests",
		schema.IntList("client_ids").Require(),
		schema.Date("date").AllowEmpty(),
	)
)

// Envelope is the validated outer request (value type).
type Envelope struct {
	Account   string
	Login     string
	Token     string
	Method    string
	Arguments map[string]any
}

// EnvelopeFrom reads an envelope out of a record bound to EnvelopeSchema.
func EnvelopeFrom(r schema.Record) Envelope {
	args := r.Dict("arguments")
	if args == nil {
		args = map[string]any{}
	}
	return Envelope{
		Account:   r.String("account"),
		Login:     r.String("login"),
		Token:     r.String("token"),
		Method:    r.String("method"),
		Arguments: args,
	}
}

// Credentials returns the caller identity carried by the envelope.
func (e Envelope) Credentials() auth.Credentials {
	return auth.Credentials{Account: e.Account, Login: e.Login, Token: e.Token}
}

// ScoreArgs are the validated online_score arguments (value type).
// Absent fields hold their zero value.
type ScoreArgs struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  time.Time
	Gender    string // "unknown", "male", "female" or "" when absent

	present map[string]bool
}

// ScoreArgsFrom reads score arguments out of a record bound to
// OnlineScoreSchema.
func ScoreArgsFrom(r schema.Record) ScoreArgs {
	a := ScoreArgs{
		FirstName: r.String("first_name"),
		LastName:  r.String("last_name"),
		Email:     r.String("email"),
		Phone:     r.String("phone"),
		Birthday:  r.Time("birthday"),
		Gender:    r.String("gender"),
		present:   make(map[string]bool, OnlineScoreSchema.Len()),
	}
	for _, f := range OnlineScoreSchema.Fields() {
		if r.Present(f.Name) {
			a.present[f.Name] = true
		}
	}
	return a
}

// Has returns the names of the populated fields in schema order.
func (a ScoreArgs) Has() []string {
	has := make([]string, 0, len(a.present))
	for _, f := range OnlineScoreSchema.Fields() {
		if a.present[f.Name] {
			has = append(has, f.Name)
		}
	}
	return has
}

// Profile returns the scoring input for the arguments.
func (a ScoreArgs) Profile() scoring.Profile {
	return scoring.Profile{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Birthday:  a.Birthday,
		Gender:    a.Gender,
	}
}

// pairs lists the field pairs of which at least one must be fully populated.
var pairs = [][2]string{
	{"phone", "email"},
	{"first_name", "last_name"},
	{"gender", "birthday"},
}

// Scorable reports whether at least one required pair is populated.
// This is a PURE function.
func (a ScoreArgs) Scorable() bool {
	for _, p := range pairs {
		if a.present[p[0]] && a.present[p[1]] {
			return true
		}
	}
	return false
}

// Unmet returns the declared fields that are absent or empty, in schema
// order.
func (a ScoreArgs) Unmet() []string {
	var unmet []string
	for _, f := range OnlineScoreSchema.Fields() {
		if !a.present[f.Name] {
			unmet = append(unmet, f.Name)
		}
	}
	return unmet
}

// UnmetMessage describes a gating failure.
func UnmetMessage(unmet []string) string {
	return "Invalid fields: " + strings.Join(unmet, ", ")
}

// InterestsArgs are the validated clients_interests arguments (value type).
type InterestsArgs struct {
	ClientIDs []int64
	Date      time.Time // zero when absent
}

// InterestsArgsFrom reads interest arguments out of a record bound to
// ClientsInterestsSchema.
func InterestsArgsFrom(r schema.Record) InterestsArgs {
	return InterestsArgs{
		ClientIDs: r.Ints("client_ids"),
		Date:      r.Time("date"),
	}
}

// ClientKey returns the response key for a client id.
func ClientKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
