package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// TitleAnalysisFailed 는 모델이 재료를 찾지 못했음을 선언한 센티널이다.
	TitleAnalysisFailed = "분석 실패"
	// TitleAIError 는 구조화 호출 자체가 끝까지 실패했음을 뜻하는 센티널이다.
	TitleAIError = "AI 통신 오류"
)

// RecipeResult 는 구조화 호출이 반환하는 고정 형태다.
// ai_ingredients 컬럼에는 이 형태 외의 JSON 을 절대 기록하지 않는다.
type RecipeResult struct {
	Title string   `json:"title"`
	Main  []string `json:"main"`
	Sauce []string `json:"sauce"`
}

// FailureResult 는 "분석 실패" 센티널 결과를 반환한다.
func FailureResult() RecipeResult {
	return RecipeResult{Title: TitleAnalysisFailed, Main: []string{}, Sauce: []string{}}
}

// AIErrorResult 는 "AI 통신 오류" 센티널 결과를 반환한다.
func AIErrorResult() RecipeResult {
	return RecipeResult{Title: TitleAIError, Main: []string{}, Sauce: []string{}}
}

// Reconcile 은 구조화 결과에 결정적 후처리를 적용한다. main 과 sauce 가
// 모두 비었는데 제목이 실패 센티널이 아니면 제목을 센티널로 덮어쓴다.
// 그 외의 필드는 건드리지 않는 순수 함수다.
func Reconcile(r RecipeResult) RecipeResult {
	if len(r.Main) == 0 && len(r.Sauce) == 0 && r.Title != TitleAnalysisFailed {
		r.Title = TitleAnalysisFailed
	}
	return r
}

// EncodeRecipeResult 는 결과를 ai_ingredients 에 저장할 JSON 문자열로
// 직렬화한다. nil 슬라이스도 항상 빈 배열로 기록한다.
func EncodeRecipeResult(r RecipeResult) (string, error) {
	if r.Main == nil {
		r.Main = []string{}
	}
	if r.Sauce == nil {
		r.Sauce = []string{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("레시피 결과 직렬화: %w", err)
	}
	return string(data), nil
}

// DecodeRecipeResult 는 모델 원문 응답을 결과로 복호한다. 앞뒤 공백과
// 코드 펜스를 제거한 뒤 JSON 으로 파싱하며, 형태가 맞지 않으면 실패한다.
func DecodeRecipeResult(raw string) (RecipeResult, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return RecipeResult{}, fmt.Errorf("모델 응답이 비어 있음")
	}
	var r RecipeResult
	dec := json.NewDecoder(strings.NewReader(cleaned))
	if err := dec.Decode(&r); err != nil {
		return RecipeResult{}, fmt.Errorf("모델 응답 파싱: %w", err)
	}
	if r.Main == nil {
		r.Main = []string{}
	}
	if r.Sauce == nil {
		r.Sauce = []string{}
	}
	return r, nil
}

// StructuringError 는 재시도까지 모두 소진한 구조화 호출 실패다.
type StructuringError struct {
	Attempts int
	Err      error
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("구조화 호출 실패 (%d회 시도): %v", e.Attempts, e.Err)
}

// Unwrap 은 마지막 시도의 원인 오류를 반환한다.
func (e *StructuringError) Unwrap() error { return e.Err }
