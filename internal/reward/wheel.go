package reward

import "errors"

var (
	// ErrEmptyWheel 奖池为空
	ErrEmptyWheel = errors.New("奖池为空")
	// ErrInvalidWeight 权重非法
	ErrInvalidWeight = errors.New("奖项权重必须为正数")
)

// Prize 转盘奖项
type Prize struct {
	Index  int     `json:"index"`
	Label  string  `json:"label"`
	Kind   string  `json:"kind"`
	Value  float64 `json:"value"`
	Weight float64 `json:"weight"`
	Code   string  `json:"code,omitempty"`
}

// Wheel 加权转盘。权重在构造时归一化为 100，抽取是纯函数，
// 随机数由调用方注入。
type Wheel struct {
	prizes     []Prize
	cumulative []float64
}

// NewWheel 构造转盘并归一化权重。所有权重必须为正。
func NewWheel(prizes []Prize) (*Wheel, error) {
	if len(prizes) == 0 {
		return nil, ErrEmptyWheel
	}
	total := 0.0
	for _, p := range prizes {
		if p.Weight <= 0 {
			return nil, ErrInvalidWeight
		}
		total += p.Weight
	}

	normalized := make([]Prize, len(prizes))
	cumulative := make([]float64, len(prizes))
	acc := 0.0
	for i, p := range prizes {
		p.Index = i
		p.Weight = p.Weight / total * 100
		acc += p.Weight
		normalized[i] = p
		cumulative[i] = acc
	}
	// 浮点累加误差归到最后一格
	cumulative[len(cumulative)-1] = 100
	return &Wheel{prizes: normalized, cumulative: cumulative}, nil
}

// Prizes 返回归一化后的奖项列表
func (w *Wheel) Prizes() []Prize {
	out := make([]Prize, len(w.prizes))
	copy(out, w.prizes)
	return out
}

// Pick 选出累计权重首次达到落点的奖项（累计权重 >= roll），roll 取值范围 [0, 100]。
// 同一 roll 永远命中同一奖项。
func (w *Wheel) Pick(roll float64) Prize {
	if roll < 0 {
		roll = 0
	}
	if roll > 100 {
		roll = 100
	}
	for i, edge := range w.cumulative {
		if roll <= edge {
			return w.prizes[i]
		}
	}
	return w.prizes[len(w.prizes)-1]
}
