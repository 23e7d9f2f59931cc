package model

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
    d := NewDate(1990, time.March, 7)
    b, err := json.Marshal(d)
    require.NoError(t, err)
    assert.Equal(t, `"1990-03-07"`, string(b))

    var got Date
    require.NoError(t, json.Unmarshal([]byte(`"2001-12-31"`), &got))
    assert.Equal(t, NewDate(2001, time.December, 31), got)

    assert.Error(t, json.Unmarshal([]byte(`"31/12/2001"`), &got))
}

func TestUser_JSONHidesPasswordHash(t *testing.T) {
    u := User{ID: 1, Username: "alice", PasswordHash: "$2a$10$secret", Role: RoleUser}
    b, err := json.Marshal(u)
    require.NoError(t, err)
    assert.NotContains(t, string(b), "secret")
    assert.Contains(t, string(b), `"role":"user"`)
}

func TestRole_Valid(t *testing.T) {
    assert.True(t, RoleUser.Valid())
    assert.True(t, RoleAdmin.Valid())
    assert.False(t, Role("owner").Valid())
}
