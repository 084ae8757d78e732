package domain

// Cycle3AttributeRequestData はRPに追加入力を求める属性の名前と発行者を表す。
type Cycle3AttributeRequestData struct {
	AttributeName   string `json:"attributeName"`
	RequestIssuerID string `json:"requestIssuerId"`
}

// Cycle3Dataset はユーザーが入力したCycle3属性の集合を表す。
type Cycle3Dataset struct {
	Attributes map[string]string `json:"attributes"`
}

// NewCycle3Dataset は単一属性のCycle3Datasetを生成する。
func NewCycle3Dataset(name, value string) Cycle3Dataset {
	return Cycle3Dataset{Attributes: map[string]string{name: value}}
}

// Cycle3UserInput はブラウザから送信されたCycle3入力を表す。
type Cycle3UserInput struct {
	Cycle3Input        string `json:"cycle3Input"`
	PrincipalIPAddress string `json:"principalIpAddress"`
}
