package sui

import (
	"encoding/json"
	"fmt"

	"github.com/block-vision/sui-go-sdk/mystenbcs"
)

// Pure 入力の型名です。MakeMoveVec の要素型にも使います。
const (
	TypeU64     = "u64"
	TypeAddress = "address"
	TypeString  = "0x1::string::String"
)

type argumentKind int

const (
	argGasCoin argumentKind = iota
	argInput
	argResult
	argNestedResult
)

// Argument はコマンドに渡す引数の参照です。
type Argument struct {
	kind   argumentKind
	index  int
	nested int
}

// GasCoin はガス支払い用コインを指します。
func GasCoin() Argument { return Argument{kind: argGasCoin} }

func (a Argument) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case argGasCoin:
		return []byte(`{"GasCoin":true}`), nil
	case argInput:
		return json.Marshal(map[string]int{"Input": a.index})
	case argResult:
		return json.Marshal(map[string]int{"Result": a.index})
	case argNestedResult:
		return json.Marshal(map[string][2]int{"NestedResult": {a.index, a.nested}})
	}
	return nil, fmt.Errorf("unknown argument kind: %d", a.kind)
}

// Input はトランザクションの入力です。Pure 値または未解決のオブジェクト参照のどちらかです。
type Input struct {
	PureType string `json:"-"`
	Value    any    `json:"-"`
	pure     []byte
	objectID string
}

// IsObject はオブジェクト参照の入力であれば true を返します。
func (in Input) IsObject() bool { return in.objectID != "" }

// ObjectID は参照しているオブジェクト ID を返します。
func (in Input) ObjectID() string { return in.objectID }

func (in Input) MarshalJSON() ([]byte, error) {
	if in.objectID != "" {
		return json.Marshal(map[string]any{"UnresolvedObject": map[string]string{"objectId": in.objectID}})
	}
	return json.Marshal(map[string]any{"Pure": map[string]string{"bytes": mystenbcs.ToBase64(in.pure)}})
}

type SplitCoins struct {
	Coin    Argument   `json:"coin"`
	Amounts []Argument `json:"amounts"`
}

type MakeMoveVec struct {
	Type     string     `json:"type"`
	Elements []Argument `json:"elements"`
}

type MoveCall struct {
	Package       string     `json:"package"`
	Module        string     `json:"module"`
	Function      string     `json:"function"`
	TypeArguments []string   `json:"typeArguments"`
	Arguments     []Argument `json:"arguments"`
}

// Command は Programmable Transaction の1コマンドです。いずれか1つのフィールドのみ設定されます。
type Command struct {
	SplitCoins  *SplitCoins  `json:"SplitCoins,omitempty"`
	MakeMoveVec *MakeMoveVec `json:"MakeMoveVec,omitempty"`
	MoveCall    *MoveCall    `json:"MoveCall,omitempty"`
}

type GasData struct {
	Budget  string `json:"budget,omitempty"`
	Price   any    `json:"price"`
	Owner   any    `json:"owner"`
	Payment any    `json:"payment"`
}

// Transaction は署名前の Programmable Transaction Block です。
// JSON 表現はウォレットがそのまま解釈できる v2 形式です。
type Transaction struct {
	Version    int       `json:"version"`
	Sender     string    `json:"sender"`
	Expiration any       `json:"expiration"`
	GasData    GasData   `json:"gasData"`
	Inputs     []Input   `json:"inputs"`
	Commands   []Command `json:"commands"`
}

// NewTransaction は sender を送信者とする空のトランザクションを作成します。
func NewTransaction(sender string) *Transaction {
	return &Transaction{
		Version:  2,
		Sender:   sender,
		Inputs:   []Input{},
		Commands: []Command{},
	}
}

// SetGasBudget はガス予算を設定します。0 の場合はウォレット側の見積もりに任せます。
func (tx *Transaction) SetGasBudget(budget uint64) {
	if budget == 0 {
		tx.GasData.Budget = ""
		return
	}
	tx.GasData.Budget = fmt.Sprintf("%d", budget)
}

func (tx *Transaction) addInput(in Input) Argument {
	tx.Inputs = append(tx.Inputs, in)
	return Argument{kind: argInput, index: len(tx.Inputs) - 1}
}

func (tx *Transaction) addCommand(c Command) Argument {
	tx.Commands = append(tx.Commands, c)
	return Argument{kind: argResult, index: len(tx.Commands) - 1}
}

// PureU64 は u64 の Pure 入力を追加します。
func (tx *Transaction) PureU64(v uint64) Argument {
	return tx.addInput(Input{PureType: TypeU64, Value: v, pure: encodeU64(v)})
}

// PureString は文字列の Pure 入力を追加します。
func (tx *Transaction) PureString(s string) Argument {
	return tx.addInput(Input{PureType: TypeString, Value: s, pure: encodeString(s)})
}

// PureAddress はアドレスの Pure 入力を追加します。
func (tx *Transaction) PureAddress(addr string) (Argument, error) {
	b, err := encodeAddress(addr)
	if err != nil {
		return Argument{}, err
	}
	norm, _ := NormalizeAddress(addr)
	return tx.addInput(Input{PureType: TypeAddress, Value: norm, pure: b}), nil
}

// Object はオブジェクト参照の入力を追加します。バージョンとダイジェストはウォレット側で解決されます。
func (tx *Transaction) Object(objectID string) Argument {
	return tx.addInput(Input{objectID: objectID})
}

// SplitCoins は coin から amounts を分割し、分割後の各コインを返します。
func (tx *Transaction) SplitCoins(coin Argument, amounts ...Argument) []Argument {
	res := tx.addCommand(Command{SplitCoins: &SplitCoins{Coin: coin, Amounts: amounts}})
	out := make([]Argument, len(amounts))
	for i := range amounts {
		out[i] = Argument{kind: argNestedResult, index: res.index, nested: i}
	}
	return out
}

// MakeMoveVec は要素型 typ のベクタを作ります。
func (tx *Transaction) MakeMoveVec(typ string, elements []Argument) Argument {
	if elements == nil {
		elements = []Argument{}
	}
	return tx.addCommand(Command{MakeMoveVec: &MakeMoveVec{Type: typ, Elements: elements}})
}

// MoveCall は target ("pkg::module::function") の呼び出しを追加します。
func (tx *Transaction) MoveCall(pkg, module, function string, args ...Argument) Argument {
	return tx.addCommand(Command{MoveCall: &MoveCall{
		Package:       pkg,
		Module:        module,
		Function:      function,
		TypeArguments: []string{},
		Arguments:     args,
	}})
}

// InputOf は a が指す入力を返します。
func (tx *Transaction) InputOf(a Argument) (Input, bool) {
	if a.kind != argInput || a.index < 0 || a.index >= len(tx.Inputs) {
		return Input{}, false
	}
	return tx.Inputs[a.index], true
}

// VectorOf は a が MakeMoveVec の結果を指す場合、その要素型と要素の値を返します。
func (tx *Transaction) VectorOf(a Argument) (string, []any, bool) {
	if a.kind != argResult || a.index < 0 || a.index >= len(tx.Commands) {
		return "", nil, false
	}
	vec := tx.Commands[a.index].MakeMoveVec
	if vec == nil {
		return "", nil, false
	}
	values := make([]any, 0, len(vec.Elements))
	for _, el := range vec.Elements {
		in, ok := tx.InputOf(el)
		if !ok {
			return "", nil, false
		}
		values = append(values, in.Value)
	}
	return vec.Type, values, true
}

// MintCall は最後の MoveCall コマンドを返します。
func (tx *Transaction) MintCall() (*MoveCall, bool) {
	for i := len(tx.Commands) - 1; i >= 0; i-- {
		if tx.Commands[i].MoveCall != nil {
			return tx.Commands[i].MoveCall, true
		}
	}
	return nil, false
}
