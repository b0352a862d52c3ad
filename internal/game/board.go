// Package game 实现终极井字棋（Ultimate Tic-Tac-Toe）的纯规则引擎。
// 规则判定不依赖任何外部状态，本地对局与服务端权威判定共用同一份代码。
package game

// Mark 棋子标记
type Mark string

const (
	MarkNone Mark = ""  // 空格
	MarkX    Mark = "X" // 先手
	MarkO    Mark = "O" // 后手
)

// Other 返回对方的标记
func (m Mark) Other() Mark {
	if m == MarkX {
		return MarkO
	}
	return MarkX
}

// SubResult 小棋盘（或整局）的结算结果
// 空字符串表示未分胜负，"-" 表示平局，否则为获胜方标记
type SubResult string

const (
	SubUndecided SubResult = ""  // 未分胜负
	SubDrawn     SubResult = "-" // 平局（9 格填满且无三连）
)

// WonBy 构造获胜结果
func WonBy(m Mark) SubResult { return SubResult(m) }

// Winner 返回获胜方标记，未分胜负或平局时 ok 为 false
func (r SubResult) Winner() (Mark, bool) {
	switch r {
	case SubResult(MarkX), SubResult(MarkO):
		return Mark(r), true
	default:
		return MarkNone, false
	}
}

// Decided 是否已有结果（胜或平）
func (r SubResult) Decided() bool { return r != SubUndecided }

// WinLines 标准井字棋的 8 条连线（行、列、对角线）
// 小棋盘判胜与大棋盘判胜共用同一张表
var WinLines = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// SubBoard 一个 3×3 小棋盘，0-8 按行优先排列
type SubBoard [9]Mark

// Full 棋盘是否已填满
func (b SubBoard) Full() bool {
	for _, m := range b {
		if m == MarkNone {
			return false
		}
	}
	return true
}

// Result 计算小棋盘的结算结果。纯函数，不修改棋盘。
func (b SubBoard) Result() SubResult {
	for _, line := range WinLines {
		a := b[line[0]]
		if a != MarkNone && a == b[line[1]] && a == b[line[2]] {
			return WonBy(a)
		}
	}
	if b.Full() {
		return SubDrawn
	}
	return SubUndecided
}

// OverallResult 根据 9 个小棋盘的结果计算整局结果
// 把 WonBy(m) 视为大棋盘上的棋子 m，平局和未定都视为空格
// 先查三连再查满盘：同一次更新里大棋盘三连优先于满盘平局
func OverallResult(results [9]SubResult) SubResult {
	for _, line := range WinLines {
		a, ok := results[line[0]].Winner()
		if !ok {
			continue
		}
		bm, _ := results[line[1]].Winner()
		cm, _ := results[line[2]].Winner()
		if a == bm && a == cm {
			return WonBy(a)
		}
	}
	for _, r := range results {
		if !r.Decided() {
			return SubUndecided
		}
	}
	return SubDrawn
}
