package domain

import "fmt"

// LevelOfAssurance は要求/達成された保証レベルを表す序数型。
// LevelX は不正イベント（フラウド）を示す特殊値で、通常の序列には含まれない。
type LevelOfAssurance string

const (
	Level1 LevelOfAssurance = "LEVEL_1"
	Level2 LevelOfAssurance = "LEVEL_2"
	Level3 LevelOfAssurance = "LEVEL_3"
	Level4 LevelOfAssurance = "LEVEL_4"
	LevelX LevelOfAssurance = "LEVEL_X"
)

// loaOrdinal は保証レベルの序列
var loaOrdinal = map[LevelOfAssurance]int{
	Level1: 1,
	Level2: 2,
	Level3: 3,
	Level4: 4,
}

// IsValid は既知の保証レベルかどうかを判定する。
func (l LevelOfAssurance) IsValid() bool {
	if l == LevelX {
		return true
	}
	_, ok := loaOrdinal[l]
	return ok
}

// IsFraud は不正イベントを示すレベルかどうかを判定する。
func (l LevelOfAssurance) IsFraud() bool {
	return l == LevelX
}

// AtLeast は自身が other 以上の保証レベルかどうかを判定する。
// どちらかが序列外（LEVEL_X等）の場合はfalseを返す。
func (l LevelOfAssurance) AtLeast(other LevelOfAssurance) bool {
	a, ok := loaOrdinal[l]
	if !ok {
		return false
	}
	b, ok := loaOrdinal[other]
	if !ok {
		return false
	}
	return a >= b
}

func (l LevelOfAssurance) String() string {
	return string(l)
}

// ParseLevelOfAssurance は文字列をLevelOfAssuranceに変換する。
func ParseLevelOfAssurance(s string) (LevelOfAssurance, error) {
	l := LevelOfAssurance(s)
	if !l.IsValid() {
		return "", fmt.Errorf("unknown level of assurance: %q", s)
	}
	return l, nil
}
