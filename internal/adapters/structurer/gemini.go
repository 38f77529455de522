package structurer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kellyjoo3/pickandcook/internal/domain"
)

type textGenerator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// Gemini 는 domain.RecipeStructurer 를 Gemini generateContent 로 구현한다.
// 호출 1회만 담당하고 재시도 정책은 Retrying 데코레이터가 소유한다.
type Gemini struct {
	client  textGenerator
	model   string
	timeout time.Duration
}

// NewGemini 는 구조화 어댑터를 생성한다.
func NewGemini(client textGenerator, model string, timeout time.Duration) *Gemini {
	if model == "" {
		model = "models/gemini-2.5-flash-lite"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{client: client, model: model, timeout: timeout}
}

// promptTemplate 은 분석 프롬프트 본문이다. 라벨 검증 규칙, 종료 신호,
// 실패 JSON 문구는 운영 정책이므로 수정 시 Reconcile 의 센티널과 함께
// 맞춰야 한다.
const promptTemplate = `당신은 요리 레시피 텍스트 분석 AI입니다.
아래 "--- 분석할 텍스트 ---"에서 '주요 재료', '소스 재료', '요리 제목' 3가지 항목을 명시된 라벨 규칙에 따라 정확히 추출하여 JSON 객체로 반환하세요.

[작업 로직]
1. 텍스트 시작/끝의 관련 없는 내용과 팁(📌)은 결과에 포함하지 마세요.

2. 주요 재료(main) 목록 생성 (문맥 기반 라벨 검증, 종료 패턴):
   * "재료" 또는 "재료명" 키워드를 포함하는 '재료 라벨 후보' 줄을 찾습니다. 뒤에 콜론(:), 이모지(👉🏻 등), 공백이 올 수 있습니다.
   * 후보 줄 바로 다음 몇 줄이 짧은 명사 형태의 목록(예: "돼지고기 200g", "양파 반 개", "- 대파 1대")으로 보이면 해당 줄을 '진짜 재료 라벨'로 확정합니다.
     짧은 명사 형태의 목록이란 문장 종결어미(요, 다, 네 등)가 없고 쉼표 또는 줄바꿈으로 구분된 나열형 구조입니다.
   * 진짜 재료 라벨을 찾았다면 바로 다음 줄부터 아래 '종료 신호' 직전까지의 모든 줄을 그대로 main 에 저장합니다:
     - 종료 신호 (라벨): "소스", "양념:", "토핑:", "레시피", "만드는 법", "팁", "레시피출처" (띄어쓰기/합성어 변형 포함)
     - 종료 신호 (기호): 📌, 📍, ✅ 로 시작하는 줄
     - 종료 신호 (형식): 빈 줄
     - 종료 신호 (위치): 텍스트의 끝
   * 진짜 재료 라벨을 찾지 못했다면 main 은 빈 리스트 [] 입니다.

3. 소스 재료(sauce) 목록 생성 (문맥 기반 라벨 검증, 종료 패턴):
   * "소스", "양념", "토핑" 키워드로 시작하거나 "OO소스" 형태를 포함하는 '소스 라벨 후보' 줄을 찾습니다.
   * 2번과 동일한 검증 조건으로 '진짜 소스 라벨'을 확정하고, 아래 '종료 신호' 직전까지의 모든 줄을 sauce 에 저장합니다:
     - 종료 신호 (라벨): "재료", "재료:", "레시피", "만드는 법:", "팁", "레시피출처"
     - 종료 신호 (기호): 📌, 📍, ✅ 로 시작하는 줄
     - 종료 신호 (형식): 빈 줄
     - 종료 신호 (위치): 텍스트의 끝
   * 진짜 소스 라벨을 찾지 못했다면 sauce 는 빈 리스트 [] 입니다.

4. 실패 판정 (반드시 수행): main 과 sauce 가 모두 비어있는 경우 반드시 아래와 정확히 동일한 JSON 객체를 반환하고 제목 추론을 수행하지 않습니다. title 값에 다른 문구를 절대 넣지 마세요.
{"title": "분석 실패", "main": [], "sauce": []}

5. 성공 시 제목 추론 (조건부 실행): main 또는 sauce 중 하나라도 내용이 있는 경우에만 전체 텍스트를 다시 읽고 가장 적절한 요리 제목 1개를 추론합니다. "제목 없음", "정보 없음", "알 수 없음" 등 실패를 암시하는 문구는 절대 사용하지 않습니다.

6. 성공 시 최종 JSON: {"title": "[추론된 제목]", "main": [...], "sauce": [...]}

--- 분석할 텍스트 ---
%s
--- 텍스트 끝 ---

JSON 형식으로만 응답:`

func buildPrompt(text string) string {
	return fmt.Sprintf(promptTemplate, text)
}

// Structure 는 프롬프트를 구성해 모델을 한 번 호출하고, 응답을 고정
// 형태로 복호한다. 파싱 실패도 호출 실패와 동일하게 취급한다.
func (g *Gemini) Structure(ctx context.Context, text string) (domain.RecipeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.client.GenerateText(ctx, g.model, buildPrompt(text))
	if err != nil {
		return domain.RecipeResult{}, fmt.Errorf("gemini 호출: %w", err)
	}
	result, err := domain.DecodeRecipeResult(strings.TrimSpace(raw))
	if err != nil {
		return domain.RecipeResult{}, err
	}
	return result, nil
}
