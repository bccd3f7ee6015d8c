package models

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// Key collision attacks could let a caller craft an identifier that lands in
// someone else's bucket.
type KeySecuritySuite struct {
	suite.Suite
}

func TestKeySecuritySuite(t *testing.T) {
	suite.Run(t, new(KeySecuritySuite))
}

func (s *KeySecuritySuite) TestFormat() {
	s.Equal("api:user:u1", NewUserKey(PolicyAPI, "u1").String())
	s.Equal("auth:1.2.3.4", NewIPKey(PolicyAuth, "1.2.3.4").String())
	s.Equal(PolicyAuth, NewIPKey(PolicyAuth, "1.2.3.4").Policy())
}

func (s *KeySecuritySuite) TestKeyCollisionAttack() {
	s.Run("ip key cannot impersonate a user key", func() {
		forged := NewIPKey(PolicyAPI, "user:u1")
		s.NotEqual(NewUserKey(PolicyAPI, "u1").String(), forged.String())
	})

	s.Run("user id with colons stays in its own bucket", func() {
		s.Equal("api:user:u1_cadmin", NewUserKey(PolicyAPI, "u1:admin").String())
	})

	s.Run("escape character cannot be used to forge a colon", func() {
		a := NewUserKey(PolicyAPI, "a_cb").String()
		b := NewUserKey(PolicyAPI, "a:b").String()
		s.NotEqual(a, b)
	})

	s.Run("ipv6 addresses are escaped", func() {
		s.Equal("public:2001_cdb8___c_c1", NewIPKey(PolicyPublic, "2001:db8_::1").String())
	})

	s.Run("same caller different policies never share a key", func() {
		s.NotEqual(NewUserKey(PolicyAPI, "u1").String(), NewUserKey(PolicySearch, "u1").String())
	})
}
