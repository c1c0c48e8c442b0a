package ir

// Version identifies the transaction schema recorded in genesis.
const Version = "1"

// Genesis describes a deployment. Replaying a journal starts from it.
type Genesis struct {
	DeploymentID string `json:"deployment_id"`
	Deployer     string `json:"deployer"`
	Config       Object `json:"config"`
	Version      string `json:"version"`
}

// Object returns the genesis as a canonical object.
func (g Genesis) Object() Object {
	cfg := g.Config
	if cfg == nil {
		cfg = Object{}
	}
	return Object{
		"deployment_id": String(g.DeploymentID),
		"deployer":      String(g.Deployer),
		"config":        cfg,
		"version":       String(g.Version),
	}
}

// Transaction is one caller-submitted operation, stamped by the ledger.
type Transaction struct {
	ID     string `json:"id"`     // Content-addressed hash
	Seq    uint64 `json:"seq"`    // Logical clock
	Op     string `json:"op"`     // Registry operation name
	Caller string `json:"caller"` // Checksummed caller address
	Args   Object `json:"args"`
}

// Status is the outcome class of a transaction.
type Status string

const (
	StatusOK       Status = "ok"
	StatusRejected Status = "rejected"
)

// Outcome records what a transaction did.
type Outcome struct {
	Status  Status `json:"status"`
	Code    string `json:"code,omitempty"`    // Rejection code
	Message string `json:"message,omitempty"` // Rejection message
	Result  Object `json:"result"`            // Operation output, e.g. token_id
}

// Object returns the outcome as a canonical object.
func (o Outcome) Object() Object {
	obj := Object{"status": String(o.Status)}
	if o.Code != "" {
		obj["code"] = String(o.Code)
	}
	if o.Message != "" {
		obj["message"] = String(o.Message)
	}
	if o.Result != nil {
		obj["result"] = o.Result
	} else {
		obj["result"] = Object{}
	}
	return obj
}

// EventRecord is a journaled event.
type EventRecord struct {
	Seq     uint64 `json:"seq"`
	TxSeq   uint64 `json:"tx_seq"`
	Kind    string `json:"kind"`
	Payload Object `json:"payload"`
}

// Object returns the record as a canonical object.
func (e EventRecord) Object() Object {
	payload := e.Payload
	if payload == nil {
		payload = Object{}
	}
	return Object{
		"seq":     Uint(e.Seq),
		"tx_seq":  Uint(e.TxSeq),
		"kind":    String(e.Kind),
		"payload": payload,
	}
}
