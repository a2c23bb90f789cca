package scaffold

// Markers the code generator is expected to replace.
const (
	ImportsMarker = "<imports>"
	StubMarker    = "<stub>"
)

const matplotlibTemplate = `import pandas as pd
import matplotlib.pyplot as plt
<imports>
# step by step plan for generating code -
def plot(data: pd.DataFrame):
    <stub> # only modify this section
    return plt

chart = plot(data) # Always include this line. No additional code beyond this line`

const matplotlibInstructions = `Do not include plt.show(). The plot method must return a matplotlib object (plt). Use BaseMap for charts that require a map.`

const seabornTemplate = "import seaborn as sns\n" + matplotlibTemplate

const ggplotTemplate = `import plotnine as p9
<imports>
# step by step plan for generating code -
def plot(data: pd.DataFrame):
    chart = <stub> # only modify this section
    return chart

chart = plot(data) # Always include this line. No additional code beyond this line`

const ggplotInstructions = `Do not include chart.show(). The plot method must return a ggplot object (chart). Use geom_map for charts that require a map.`

const altairTemplate = `import altair as alt
<imports>
# step by step plan for generating code -
def plot(data: pd.DataFrame):
    <stub> # only modify this section
    return chart

chart = plot(data) # Always include this line. No additional code beyond this line`

const altairInstructions = `Ensure each field in the dataset is annotated with a type based on its semantic_type, such as :Q (quantitative), :O (ordinal), :N (nominal), :T (temporal), or :G (geographical). Use :T for fields where the semantic_type is either 'year' or 'date'. The plot function should construct and return an Altair chart object named chart.`

const plotlyTemplate = `import plotly.express as px
<imports>
# step by step plan for generating code -
def plot(data: pd.DataFrame):
    fig = <stub> # only modify this section
    return fig

chart = plot(data) # Always include this line. No additional code beyond this line`

const plotlyInstructions = `If calculating metrics (such as mean, median, mode) always use the option 'numeric_only=True' when applicable and available, avoid visualizations that require nbformat library. DO NOT include fig.show()`
