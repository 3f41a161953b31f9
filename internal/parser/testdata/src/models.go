package models

import "time"

// Entity is the shared base of every record.
//
//derive:codable
type Entity struct {
	ID      int       `json:"id" default:"1"`
	Created time.Time `json:"created_at"`
}

//derive:wrap
//derive:annotate "Published" Indexed
type Account struct {
	Entity
	Name  string `default:"\"anon\""`
	Email string `derive:"Published"`
	raw_  int
	Skip  string `json:"-"`
}

func NewAccount() *Account { return &Account{Name: "anon"} }

func (a *Account) Touch(at time.Time) { a.Created = at }

// Shape cannot host derived members.
//
//derive:codable
type Shape interface{ Area() float64 }

//derive:keys
type Celsius float64

type plain struct{ X int }

//derive:codable
var Default = Account{}
