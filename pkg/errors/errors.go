// Package errors はパイプライン全体のエラーハンドリングと警告システムを提供します。
// 各ステージは失敗の種類ごとに専用の型を返し、呼び出し側は errors.As で種類を判別できます。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("housingeda-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler は警告ハンドラを設定します。
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定し、直前の関数を返します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) (previous func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	previous = zerologWarnFunc
	zerologWarnFunc = warnFunc
	return previous
}

// Warn は警告を発生させます。
// zerologが設定されている場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning はクラスタリングなどの反復アルゴリズムが期待どおりに収束しなかった場合の警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s: %s (after %d iterations)", w.Algorithm, w.Message, w.Iterations)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// IgnoredFeaturesWarning は要求された特徴量の一部がテーブルに存在せず、無視された場合の警告です。
// 有効な特徴量が1つ以上残っている限り致命的ではありません。
type IgnoredFeaturesWarning struct {
	Op      string
	Ignored []string
}

func (w *IgnoredFeaturesWarning) Error() string {
	return fmt.Sprintf("%s: ignoring invalid features: [%s]", w.Op, strings.Join(w.Ignored, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *IgnoredFeaturesWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Strs("ignored", w.Ignored).
		Str("type", "IgnoredFeaturesWarning")
}

// NewIgnoredFeaturesWarning は新しいIgnoredFeaturesWarningを作成します。
func NewIgnoredFeaturesWarning(op string, ignored []string) *IgnoredFeaturesWarning {
	return &IgnoredFeaturesWarning{Op: op, Ignored: append([]string(nil), ignored...)}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// InvalidInputError はテーブルが nil または空である場合のエラーです。
type InvalidInputError struct {
	Op     string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("housingeda: %s: invalid input: %s", e.Op, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidInputError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "InvalidInputError")
}

// NewInvalidInputError は新しいInvalidInputErrorを作成し、スタックトレースを付与します。
func NewInvalidInputError(op, reason string) error {
	return errors.WithStack(&InvalidInputError{Op: op, Reason: reason})
}

// NotFoundError は参照されたファイルが存在しない場合のエラーです。
type NotFoundError struct {
	Op   string
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("housingeda: %s: data file not found: %s", e.Op, e.Path)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFoundError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("type", "NotFoundError")
}

// NewNotFoundError は新しいNotFoundErrorを作成し、スタックトレースを付与します。
func NewNotFoundError(op, path string) error {
	return errors.WithStack(&NotFoundError{Op: op, Path: path})
}

// UnsupportedFormatError はファイル拡張子がサポート対象外の場合のエラーです。
type UnsupportedFormatError struct {
	Op        string
	Path      string
	Ext       string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("housingeda: %s: unsupported file format %q for %s (supported: %s)",
		e.Op, e.Ext, e.Path, strings.Join(e.Supported, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *UnsupportedFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("path", e.Path).
		Str("extension", e.Ext).
		Strs("supported", e.Supported).
		Str("type", "UnsupportedFormatError")
}

// NewUnsupportedFormatError は新しいUnsupportedFormatErrorを作成し、スタックトレースを付与します。
func NewUnsupportedFormatError(op, path, ext string, supported []string) error {
	return errors.WithStack(&UnsupportedFormatError{Op: op, Path: path, Ext: ext, Supported: supported})
}

// EmptyDataError は読み込み・フィルタ後に利用可能な行が0件の場合のエラーです。
type EmptyDataError struct {
	Op     string
	Source string
	Reason string
}

func (e *EmptyDataError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("housingeda: %s: %s is empty: %s", e.Op, e.Source, e.Reason)
	}
	return fmt.Sprintf("housingeda: %s: %s", e.Op, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *EmptyDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("source", e.Source).
		Str("reason", e.Reason).
		Str("type", "EmptyDataError")
}

// NewEmptyDataError は新しいEmptyDataErrorを作成し、スタックトレースを付与します。
func NewEmptyDataError(op, source, reason string) error {
	return errors.WithStack(&EmptyDataError{Op: op, Source: source, Reason: reason})
}

// MissingColumnError は必須の列がテーブルに存在しない場合のエラーです。
type MissingColumnError struct {
	Op        string
	Columns   []string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("housingeda: %s: missing required columns: [%s]", e.Op, strings.Join(e.Columns, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MissingColumnError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("columns", e.Columns).
		Strs("available", e.Available).
		Str("type", "MissingColumnError")
}

// NewMissingColumnError は新しいMissingColumnErrorを作成し、スタックトレースを付与します。
func NewMissingColumnError(op string, columns, available []string) error {
	return errors.WithStack(&MissingColumnError{Op: op, Columns: columns, Available: available})
}

// NoValidFeaturesError は要求された特徴量がすべてテーブルに存在しない場合のエラーです。
type NoValidFeaturesError struct {
	Op        string
	Requested []string
	Available []string
}

func (e *NoValidFeaturesError) Error() string {
	return fmt.Sprintf("housingeda: %s: no valid features found. Requested: [%s], Available: [%s]",
		e.Op, strings.Join(e.Requested, ", "), strings.Join(e.Available, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NoValidFeaturesError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("requested", e.Requested).
		Strs("available", e.Available).
		Str("type", "NoValidFeaturesError")
}

// NewNoValidFeaturesError は新しいNoValidFeaturesErrorを作成し、スタックトレースを付与します。
func NewNoValidFeaturesError(op string, requested, available []string) error {
	return errors.WithStack(&NoValidFeaturesError{Op: op, Requested: requested, Available: available})
}

// InvalidParameterError は数値パラメータなどが制約に違反している場合のエラーです。
type InvalidParameterError struct {
	Op        string
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("housingeda: %s: invalid parameter '%s': %s (got: %v)", e.Op, e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InvalidParameterError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "InvalidParameterError")
}

// NewInvalidParameterError は新しいInvalidParameterErrorを作成し、スタックトレースを付与します。
func NewInvalidParameterError(op, param, reason string, value interface{}) error {
	return errors.WithStack(&InvalidParameterError{Op: op, ParamName: param, Reason: reason, Value: value})
}

// ImputationError は補完後にも欠損値が残っている場合のエラーです。
// 補完処理が網羅的であることを保証するための不変条件チェックです。
type ImputationError struct {
	Op      string
	Columns []string
}

func (e *ImputationError) Error() string {
	return fmt.Sprintf("housingeda: %s: unable to handle all missing values in features [%s]",
		e.Op, strings.Join(e.Columns, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ImputationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Strs("columns", e.Columns).
		Str("type", "ImputationError")
}

// NewImputationError は新しいImputationErrorを作成し、スタックトレースを付与します。
func NewImputationError(op string, columns []string) error {
	return errors.WithStack(&ImputationError{Op: op, Columns: columns})
}

// InsufficientDataError は訓練・評価の分割のどちらかが空になる場合のエラーです。
type InsufficientDataError struct {
	Op    string
	Train int
	Test  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("housingeda: %s: insufficient data for train-test split (train=%d, test=%d)",
		e.Op, e.Train, e.Test)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("train", e.Train).
		Int("test", e.Test).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError は新しいInsufficientDataErrorを作成し、スタックトレースを付与します。
func NewInsufficientDataError(op string, train, test int) error {
	return errors.WithStack(&InsufficientDataError{Op: op, Train: train, Test: test})
}

// NotFittedError は未学習の推定器で Predict などを呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("housingeda: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 は行、1 は列（特徴量）
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("housingeda: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// LoadError はファイル読み込み中の想定外の失敗をラップします。
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("housingeda: error loading data from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// NewLoadError は新しいLoadErrorを作成し、スタックトレースを付与します。
func NewLoadError(path string, err error) error {
	return errors.WithStack(&LoadError{Path: path, Err: err})
}

// TrainingError はモデル学習・予測・評価中の想定外の失敗をラップします。
type TrainingError struct {
	Op       string
	Features []string
	Err      error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("housingeda: %s: error during model training (features [%s]): %v",
		e.Op, strings.Join(e.Features, ", "), e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// NewTrainingError は新しいTrainingErrorを作成し、スタックトレースを付与します。
func NewTrainingError(op string, features []string, err error) error {
	return errors.WithStack(&TrainingError{Op: op, Features: features, Err: err})
}

// OperationError はその他のステージ（クリーニング、クラスタリング、描画など）での想定外の失敗をラップします。
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("housingeda: error during %s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError は新しいOperationErrorを作成し、スタックトレースを付与します。
func NewOperationError(op string, err error) error {
	return errors.WithStack(&OperationError{Op: op, Err: err})
}

// ===========================================================================
//
//	エラーコード
//
// ===========================================================================

// エラーコードはログの error.code 属性に使われる安定した識別子です。
const (
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeEmptyData         = "EMPTY_DATA"
	CodeMissingColumn     = "MISSING_COLUMN"
	CodeNoValidFeatures   = "NO_VALID_FEATURES"
	CodeInvalidParameter  = "INVALID_PARAMETER"
	CodeImputation        = "IMPUTATION_FAILURE"
	CodeInsufficientData  = "INSUFFICIENT_DATA"
	CodeLoad              = "LOAD_FAILURE"
	CodeTraining          = "TRAINING_FAILURE"
	CodeOperation         = "OPERATION_FAILURE"
	CodeNumerical         = "NUMERICAL_INSTABILITY"
	CodeUnknown           = "UNKNOWN"
)

// Code はエラーチェーンの中で最も外側にある分類済みエラーのコードを返します。
// TrainingError などのラップ型はステージが表に出す種類なので、内側の原因より優先されます。
// 原因の種類は errors.As で取り出せます。
func Code(err error) string {
	if err == nil {
		return ""
	}
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		if code := kindCode(e); code != "" {
			return code
		}
	}
	return CodeUnknown
}

// kindCode はチェーンをたどらずに e 自身の種類だけを判定します。
func kindCode(e error) string {
	switch e.(type) {
	case *InvalidInputError:
		return CodeInvalidInput
	case *NotFoundError:
		return CodeNotFound
	case *UnsupportedFormatError:
		return CodeUnsupportedFormat
	case *EmptyDataError:
		return CodeEmptyData
	case *MissingColumnError:
		return CodeMissingColumn
	case *NoValidFeaturesError:
		return CodeNoValidFeatures
	case *InvalidParameterError:
		return CodeInvalidParameter
	case *ImputationError:
		return CodeImputation
	case *InsufficientDataError:
		return CodeInsufficientData
	case *NumericalInstabilityError:
		return CodeNumerical
	case *LoadError:
		return CodeLoad
	case *TrainingError:
		return CodeTraining
	case *OperationError:
		return CodeOperation
	default:
		return ""
	}
}

// IsClassified はエラーがすでにパイプラインのエラー分類に属しているかを判定します。
// ステージの外側境界では、分類済みのエラーを再ラップせずにそのまま返します。
func IsClassified(err error) bool {
	code := Code(err)
	return code != "" && code != CodeUnknown
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// NumericalInstabilityError は数値計算でNaNやInfが発生した場合のエラーです。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
}

func (e *NumericalInstabilityError) Error() string {
	var b strings.Builder
	for i, v := range e.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		if i >= 5 {
			b.WriteString("...")
			break
		}
		fmt.Fprintf(&b, "%.6g", v)
	}
	return fmt.Sprintf("housingeda: numerical instability detected in %s. Values: [%s]", e.Operation, b.String())
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64) error {
	return errors.WithStack(&NumericalInstabilityError{Operation: operation, Values: values})
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
