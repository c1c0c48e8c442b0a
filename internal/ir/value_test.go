package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedKeys(t *testing.T) {
	obj := Object{"zebra": Uint(1), "alpha": Uint(2), "Beta": Uint(3)}
	assert.Equal(t, []string{"Beta", "alpha", "zebra"}, obj.SortedKeys())
	assert.Empty(t, Object{}.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	assert.Equal(t, 0, compareKeysRFC8785("a", "a"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "b"))
	assert.Equal(t, -1, compareKeysRFC8785("a", "ab"))
	assert.Equal(t, 1, compareKeysRFC8785("\uE000", "\U00010000"))
}

func TestObjectAccessors(t *testing.T) {
	obj := Object{"cid": String("bafy"), "date": Uint(20240101)}

	s, err := obj.Str("cid")
	require.NoError(t, err)
	assert.Equal(t, "bafy", s)

	n, err := obj.Uint("date")
	require.NoError(t, err)
	assert.Equal(t, uint64(20240101), n)

	_, err = obj.Str("date")
	assert.Error(t, err)
	_, err = obj.Uint("cid")
	assert.Error(t, err)
	_, err = obj.Str("missing")
	assert.Error(t, err)

	s, err = obj.StrOr("hash", "default")
	require.NoError(t, err)
	assert.Equal(t, "default", s)
}

func TestUnmarshalValue(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"a":[1,"x",true],"b":{"c":18446744073709551615}}`))
	require.NoError(t, err)
	assert.Equal(t, Object{
		"a": Array{Uint(1), String("x"), Bool(true)},
		"b": Object{"c": Uint(18446744073709551615)},
	}, v)
}

func TestUnmarshalValueRejects(t *testing.T) {
	for _, in := range []string{`1.5`, `1e3`, `-1`, `null`, `{"a":null}`, `[0.1]`, `18446744073709551616`} {
		t.Run(in, func(t *testing.T) {
			_, err := UnmarshalValue([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestObjectJSON(t *testing.T) {
	tx := Transaction{
		ID:     "abc",
		Seq:    2,
		Op:     "mint",
		Caller: "0x1",
		Args:   Object{"tokenId": Uint(0), "account": String("0x1")},
	}

	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"abc","seq":2,"op":"mint","caller":"0x1","args":{"account":"0x1","tokenId":0}}`, string(data))

	var back Transaction
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, tx, back)
}

func TestObjectUnmarshalRejectsNonObject(t *testing.T) {
	var obj Object
	assert.Error(t, json.Unmarshal([]byte(`[1]`), &obj))
}

func TestOutcomeObject(t *testing.T) {
	ok := Outcome{Status: StatusOK, Result: Object{"token_id": Uint(0)}}
	assert.Equal(t, `{"result":{"token_id":0},"status":"ok"}`, string(MustMarshalCanonical(ok.Object())))

	rejected := Outcome{Status: StatusRejected, Code: "NotFound", Message: "NotFound(9)"}
	assert.Equal(t, `{"code":"NotFound","message":"NotFound(9)","result":{},"status":"rejected"}`,
		string(MustMarshalCanonical(rejected.Object())))
}
